package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskManagement/internal/logger"
	"taskManagement/internal/models/task"
	"taskManagement/internal/models/user"
	repo "taskManagement/internal/repository"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Options struct {
	URL            string
	MaxConnections int32
	MinConnections int32
	IdleTimeout    time.Duration
}

type Storage struct {
	pool *pgxpool.Pool
}

var columns = map[task.Field]string{
	task.FieldTitle:       "title",
	task.FieldDescription: "description",
	task.FieldCategory:    "category",
	task.FieldPosition:    "position",
	task.FieldDueDate:     "due_date",
}

// схема создаётся идемпотентно при старте, миграций нет
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		seq BIGSERIAL,
		id CHAR(24) PRIMARY KEY,
		title TEXT,
		description TEXT,
		category TEXT,
		position INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		due_date TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_category_position ON tasks(category, position)`,
	`CREATE TABLE IF NOT EXISTS users (
		seq BIGSERIAL,
		id CHAR(24) PRIMARY KEY,
		doc JSONB NOT NULL
	)`,
}

const selectTasks = `SELECT
				id,
				COALESCE(title, ''),
				COALESCE(description, ''),
				COALESCE(category, ''),
				position,
				created_at,
				due_date
				FROM tasks`

func New(ctx context.Context, opts Options) (*Storage, error) {
	config, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = opts.MaxConnections
	config.MinConns = opts.MinConnections
	config.MaxConnIdleTime = opts.IdleTimeout

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		pool.Close()
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	storage := &Storage{pool: pool}
	if err := storage.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return storage, nil
}

func (s *Storage) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			logger.Error("Repository: Ошибка создания схемы", err)
			return fmt.Errorf("создание схемы: %w", err)
		}
	}
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) ListTasks(ctx context.Context, filter repo.TaskFilter) ([]*task.Task, error) {
	start := time.Now()

	query := selectTasks
	args := []any{}
	if filter.Category != "" {
		query += ` WHERE category = $1`
		args = append(args, filter.Category)
	}
	if filter.SortByPosition {
		query += ` ORDER BY position ASC, seq ASC`
	} else {
		query += ` ORDER BY seq ASC`
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow("list_tasks", start)
	return tasks, nil
}

func (s *Storage) MaxPosition(ctx context.Context, category string) (int, bool, error) {
	var maxPosition *int
	err := s.pool.QueryRow(ctx, `SELECT MAX(position) FROM tasks WHERE category = $1`, category).Scan(&maxPosition)
	if err != nil {
		logger.Error("Repository: Не удалось получить максимальную позицию", err, zap.String("category", category))
		return 0, false, fmt.Errorf("максимальная позиция: %w", err)
	}
	if maxPosition == nil {
		return 0, false, nil
	}
	return *maxPosition, true, nil
}

func (s *Storage) InsertTask(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	id := primitive.NewObjectID()
	query := `INSERT INTO tasks
				(id, title, description, category, position, created_at, due_date)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		id.Hex(),
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Category,
		taskToCreate.Position,
		taskToCreate.Timestamp,
		taskToCreate.DueDate,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	taskToCreate.ID = id
	warnSlow("insert_task", start)
	return nil
}

// UpdateTask строит UPDATE только по переданным полям. Строка считается
// изменённой, если хотя бы одно значение отличается от сохранённого.
func (s *Storage) UpdateTask(ctx context.Context, id primitive.ObjectID, update task.Update) (repo.UpdateResult, error) {
	start := time.Now()

	if len(update) == 0 {
		return repo.UpdateResult{}, nil
	}

	sets := make([]string, 0, len(update))
	changes := make([]string, 0, len(update))
	args := []any{id.Hex()}
	for _, a := range update {
		column, ok := columns[a.Field]
		if !ok {
			return repo.UpdateResult{}, fmt.Errorf("%w: %s", repo.ErrUnsupportedField, a.Field)
		}
		args = append(args, a.Value)
		placeholder := fmt.Sprintf("$%d", len(args))
		sets = append(sets, column+" = "+placeholder)
		changes = append(changes, column+" IS DISTINCT FROM "+placeholder)
	}

	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND (` + strings.Join(changes, " OR ") + `)`

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.String("task_id", id.Hex()))
		return repo.UpdateResult{}, fmt.Errorf("обновление задачи: %w", err)
	}

	if tag.RowsAffected() > 0 {
		warnSlow("update_task", start)
		return repo.UpdateResult{Matched: tag.RowsAffected(), Modified: tag.RowsAffected()}, nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id.Hex()).Scan(&exists)
	if err != nil {
		logger.Error("Repository: Не удалось проверить задачу", err, zap.String("task_id", id.Hex()))
		return repo.UpdateResult{}, fmt.Errorf("проверка задачи: %w", err)
	}

	result := repo.UpdateResult{}
	if exists {
		result.Matched = 1
	}
	warnSlow("update_task", start)
	return result, nil
}

func (s *Storage) DeleteTask(ctx context.Context, id primitive.ObjectID) (int64, error) {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id.Hex())
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("удаление задачи: %w", err)
	}

	warnSlow("delete_task", start)
	return tag.RowsAffected(), nil
}

// ApplyPositions отправляет все записи одним pgx.Batch и останавливается на первой ошибке.
// Найденная строка считается изменённой.
func (s *Storage) ApplyPositions(ctx context.Context, placements []task.Placement) (repo.BatchResult, error) {
	start := time.Now()

	batch := &pgx.Batch{}
	for _, p := range placements {
		batch.Queue(`UPDATE tasks SET position = $2 WHERE id = $1`, p.ID.Hex(), p.Position)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	var result repo.BatchResult
	for range placements {
		tag, err := results.Exec()
		if err != nil {
			logger.Error("Repository: Ошибка пакетной записи позиций", err,
				zap.Int("writes", len(placements)),
				zap.Int64("modified", result.Modified))
			return result, fmt.Errorf("пакетная запись позиций: %w", err)
		}
		result.Matched += tag.RowsAffected()
		result.Modified += tag.RowsAffected()
	}

	warnSlow("apply_positions", start)
	return result, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, doc FROM users ORDER BY seq ASC`)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err)
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []user.User{}
	for rows.Next() {
		var (
			hex string
			doc map[string]any
		)
		if err := rows.Scan(&hex, &doc); err != nil {
			logger.Error("Repository: Ошибка сканирования пользователя", err)
			return nil, fmt.Errorf("сканирование пользователя: %w", err)
		}
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
		if err != nil {
			return nil, fmt.Errorf("идентификатор пользователя %q: %w", hex, err)
		}
		users = append(users, user.User(doc).WithID(id))
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return users, nil
}

func (s *Storage) InsertUser(ctx context.Context, doc user.User) (repo.InsertResult, error) {
	id := primitive.NewObjectID()

	_, err := s.pool.Exec(ctx, `INSERT INTO users (id, doc) VALUES ($1, $2)`, id.Hex(), map[string]any(doc.WithoutID()))
	if err != nil {
		logger.Error("Repository: Не удалось добавить пользователя", err)
		return repo.InsertResult{}, fmt.Errorf("добавление пользователя: %w", err)
	}
	return repo.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		hex string
		t   task.Task
	)
	err := row.Scan(
		&hex,
		&t.Title,
		&t.Description,
		&t.Category,
		&t.Position,
		&t.Timestamp,
		&t.DueDate,
	)
	if err != nil {
		return nil, err
	}

	t.ID, err = primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("идентификатор задачи %q", hex), err)
	}
	t.Timestamp = t.Timestamp.UTC()
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}
	return &t, nil
}

func warnSlow(operation string, start time.Time) {
	if elapsed := time.Since(start); elapsed > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос",
			zap.String("operation", operation),
			zap.Duration("ms", elapsed))
	}
}
