package mongodb

import (
	"context"
	"errors"
	"fmt"
	"taskManagement/internal/logger"
	"taskManagement/internal/models/task"
	"taskManagement/internal/models/user"
	repo "taskManagement/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	tasksCollection = "tasks"
	usersCollection = "users"

	slowQuery = time.Millisecond * 100
)

type Storage struct {
	client *mongo.Client
	tasks  *mongo.Collection
	users  *mongo.Collection
}

// New подключается к MongoDB и проверяет соединение. Любая ошибка здесь фатальна для запуска.
func New(ctx context.Context, uri, database string, connectTimeout time.Duration) (*Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	serverAPI := options.ServerAPI(options.ServerAPIVersion1).SetStrict(true)
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(serverAPI).
		SetConnectTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error("Repository: Ошибка создания клиента MongoDB", err)
		return nil, fmt.Errorf("создание клиента: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	db := client.Database(database)
	storage := &Storage{
		client: client,
		tasks:  db.Collection(tasksCollection),
		users: db.Collection(usersCollection, options.Collection().
			SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})),
	}

	index := mongo.IndexModel{Keys: bson.D{{Key: "category", Value: 1}, {Key: "position", Value: 1}}}
	if _, err := storage.tasks.Indexes().CreateOne(ctx, index); err != nil {
		logger.Error("Repository: Ошибка создания индекса", err)
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("создание индекса: %w", err)
	}

	logger.Info("Repository: Успешное подключение к MongoDB", zap.String("database", database))
	return storage, nil
}

func (s *Storage) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("отключение от MongoDB: %w", err)
	}
	logger.Info("Repository: Соединение с MongoDB закрыто")
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) ListTasks(ctx context.Context, filter repo.TaskFilter) ([]*task.Task, error) {
	start := time.Now()

	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	opts := options.Find()
	if filter.SortByPosition {
		opts.SetSort(bson.D{{Key: "position", Value: 1}})
	}

	cursor, err := s.tasks.Find(ctx, query, opts)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks := []*task.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		logger.Error("Repository: Ошибка чтения курсора", err)
		return nil, fmt.Errorf("чтение задач: %w", err)
	}

	warnSlow("list_tasks", start)
	return tasks, nil
}

func (s *Storage) MaxPosition(ctx context.Context, category string) (int, bool, error) {
	start := time.Now()

	opts := options.FindOne().
		SetSort(bson.D{{Key: "position", Value: -1}}).
		SetProjection(bson.M{"position": 1})

	var last struct {
		Position int `bson:"position"`
	}
	err := s.tasks.FindOne(ctx, bson.M{"category": category}, opts).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		logger.Error("Repository: Не удалось получить максимальную позицию", err, zap.String("category", category))
		return 0, false, fmt.Errorf("максимальная позиция: %w", err)
	}

	warnSlow("max_position", start)
	return last.Position, true, nil
}

func (s *Storage) InsertTask(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	taskToCreate.ID = primitive.NewObjectID()
	if _, err := s.tasks.InsertOne(ctx, taskToCreate); err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	warnSlow("insert_task", start)
	return nil
}

func (s *Storage) UpdateTask(ctx context.Context, id primitive.ObjectID, update task.Update) (repo.UpdateResult, error) {
	start := time.Now()

	res, err := s.tasks.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": setDocument(update)})
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.String("task_id", id.Hex()))
		return repo.UpdateResult{}, fmt.Errorf("обновление задачи: %w", err)
	}

	warnSlow("update_task", start)
	return repo.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (s *Storage) DeleteTask(ctx context.Context, id primitive.ObjectID) (int64, error) {
	start := time.Now()

	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.String("task_id", id.Hex()))
		return 0, fmt.Errorf("удаление задачи: %w", err)
	}

	warnSlow("delete_task", start)
	return res.DeletedCount, nil
}

// ApplyPositions отправляет упорядоченный bulkWrite: выполнение останавливается
// на первой ошибке, уже применённые записи не откатываются
func (s *Storage) ApplyPositions(ctx context.Context, placements []task.Placement) (repo.BatchResult, error) {
	start := time.Now()

	models := make([]mongo.WriteModel, 0, len(placements))
	for _, p := range placements {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": p.ID}).
			SetUpdate(bson.M{"$set": bson.M{"position": p.Position}}))
	}

	res, err := s.tasks.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	var result repo.BatchResult
	if res != nil {
		result = repo.BatchResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}
	}
	if err != nil {
		logger.Error("Repository: Ошибка пакетной записи позиций", err,
			zap.Int("writes", len(models)),
			zap.Int64("modified", result.Modified))
		return result, fmt.Errorf("пакетная запись позиций: %w", err)
	}

	warnSlow("apply_positions", start)
	return result, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]user.User, error) {
	start := time.Now()

	cursor, err := s.users.Find(ctx, bson.M{})
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err)
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}

	users := []user.User{}
	if err := cursor.All(ctx, &users); err != nil {
		logger.Error("Repository: Ошибка чтения курсора", err)
		return nil, fmt.Errorf("чтение пользователей: %w", err)
	}

	warnSlow("list_users", start)
	return users, nil
}

func (s *Storage) InsertUser(ctx context.Context, doc user.User) (repo.InsertResult, error) {
	start := time.Now()

	id := primitive.NewObjectID()
	if _, err := s.users.InsertOne(ctx, doc.WithID(id)); err != nil {
		logger.Error("Repository: Не удалось добавить пользователя", err)
		return repo.InsertResult{}, fmt.Errorf("добавление пользователя: %w", err)
	}

	warnSlow("insert_user", start)
	return repo.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func setDocument(update task.Update) bson.D {
	set := make(bson.D, 0, len(update))
	for _, a := range update {
		set = append(set, bson.E{Key: string(a.Field), Value: a.Value})
	}
	return set
}

func warnSlow(operation string, start time.Time) {
	if elapsed := time.Since(start); elapsed > slowQuery {
		logger.Warn("Repository: Медленный запрос",
			zap.String("operation", operation),
			zap.Duration("ms", elapsed))
	}
}
