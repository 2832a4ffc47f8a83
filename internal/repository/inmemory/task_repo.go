package inmemory

import (
	"context"
	"sort"
	"sync"
	"taskManagement/internal/logger"
	"taskManagement/internal/models/task"
	"taskManagement/internal/models/user"
	repo "taskManagement/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Storage держит задачи и пользователей в памяти.
// Мьютекс защищает только структуры данных, порядок операций не сериализуется.
type Storage struct {
	tasks map[primitive.ObjectID]*task.Task
	ids   []primitive.ObjectID
	users []user.User
	mtx   *sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		tasks: make(map[primitive.ObjectID]*task.Task),
		ids:   []primitive.ObjectID{},
		users: []user.User{},
		mtx:   &sync.RWMutex{},
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

func (s *Storage) Close(ctx context.Context) error {
	logger.Info("Repository: Хранилище в памяти закрыто")
	return nil
}

func (s *Storage) ListTasks(ctx context.Context, filter repo.TaskFilter) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	tasks := []*task.Task{}
	for _, id := range s.ids {
		t := s.tasks[id]
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		tasks = append(tasks, t.Clone())
	}

	if filter.SortByPosition {
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Position < tasks[j].Position
		})
	}
	return tasks, nil
}

func (s *Storage) MaxPosition(ctx context.Context, category string) (int, bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	maxPosition, found := 0, false
	for _, t := range s.tasks {
		if t.Category != category {
			continue
		}
		if !found || t.Position > maxPosition {
			maxPosition = t.Position
			found = true
		}
	}
	return maxPosition, found, nil
}

func (s *Storage) InsertTask(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskToCreate.ID = primitive.NewObjectID()
	s.tasks[taskToCreate.ID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

func (s *Storage) UpdateTask(ctx context.Context, id primitive.ObjectID, update task.Update) (repo.UpdateResult, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.tasks[id]
	if !ok {
		return repo.UpdateResult{}, nil
	}

	result := repo.UpdateResult{Matched: 1}
	if stored.Apply(update) {
		result.Modified = 1
	}
	return result, nil
}

func (s *Storage) DeleteTask(ctx context.Context, id primitive.ObjectID) (int64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return 0, nil
	}

	delete(s.tasks, id)
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return 1, nil
}

// ApplyPositions применяет записи по одной, отсутствующие задачи пропускаются
func (s *Storage) ApplyPositions(ctx context.Context, placements []task.Placement) (repo.BatchResult, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	var result repo.BatchResult
	for _, p := range placements {
		stored, ok := s.tasks[p.ID]
		if !ok {
			continue
		}
		result.Matched++
		if stored.Apply(task.Update{{Field: task.FieldPosition, Value: p.Position}}) {
			result.Modified++
		}
	}
	return result, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	users := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.WithID(u[user.IDKey].(primitive.ObjectID)))
	}
	return users, nil
}

func (s *Storage) InsertUser(ctx context.Context, doc user.User) (repo.InsertResult, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	id := primitive.NewObjectID()
	s.users = append(s.users, doc.WithID(id))
	return repo.InsertResult{Acknowledged: true, InsertedID: id}, nil
}
