package service

import (
	"context"
	"fmt"
	"taskManagement/internal/logger"
	"taskManagement/internal/models/task"
	"taskManagement/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики, до хранилища доходят только валидные запросы

type Option func(*TaskService)

// WithClock подменяет источник времени, нужен тестам
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

type TaskService struct {
	repo TaskRepository
	now  func() time.Time
}

func NewTaskService(repo TaskRepository, options ...Option) *TaskService {
	s := &TaskService{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]*task.Task, error) {
	tasks, err := s.repo.ListTasks(ctx, filter)
	if err != nil {
		logger.Error("Service: Ошибка получения задач", err, zap.String("category", filter.Category))
		return nil, NewStoreError("Failed to fetch tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) CreateTask(ctx context.Context, draft task.Draft) (*task.Task, error) {
	required := []struct{ field, value string }{
		{"title", draft.Title},
		{"description", draft.Description},
		{"category", draft.Category},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, NewBusinessError(CodeValidation,
				"All fields (title, description, category) are required",
				ToDetail("field", r.field))
		}
	}

	maxPosition, found, err := s.repo.MaxPosition(ctx, draft.Category)
	if err != nil {
		logger.Error("Service: Ошибка вычисления позиции", err, zap.String("category", draft.Category))
		return nil, NewStoreError("Server error", err)
	}

	newTask := &task.Task{
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Position:    nextPosition(maxPosition, found),
		Timestamp:   s.now().UTC().Truncate(time.Millisecond),
		DueDate:     draft.DueDate,
	}

	if err := s.repo.InsertTask(ctx, newTask); err != nil {
		logger.Error("Service: Ошибка создания задачи", err, zap.String("category", draft.Category))
		return nil, NewStoreError("Server error", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.ID.Hex()),
		zap.String("category", newTask.Category),
		zap.Int("position", newTask.Position))
	return newTask, nil
}

// ReorderTasks переписывает позиции ровно у перечисленных задач.
// Пакет не атомарный: при ошибке часть записей может быть уже применена.
func (s *TaskService) ReorderTasks(ctx context.Context, category string, ids []primitive.ObjectID) error {
	if category == "" {
		return NewValidationError("category", "is required")
	}
	if len(ids) == 0 {
		return NewValidationError("tasks", "must contain at least one task")
	}
	for i, id := range ids {
		if id.IsZero() {
			return NewValidationError(fmt.Sprintf("tasks[%d]", i), "must be a valid identifier")
		}
	}

	result, err := s.repo.ApplyPositions(ctx, orderPlacements(ids))
	if err != nil {
		logger.Error("Service: Ошибка пакетного обновления позиций", err,
			zap.String("category", category),
			zap.Int("tasks", len(ids)))
		return NewStoreError("Failed to update task positions", err)
	}

	logger.Info("Service: Позиции обновлены",
		zap.String("category", category),
		zap.Int64("matched", result.Matched),
		zap.Int64("modified", result.Modified))
	return nil
}

// MoveTask переносит задачу в категорию и применяет раскладку клиента как есть
func (s *TaskService) MoveTask(ctx context.Context, taskID primitive.ObjectID, category string, layout []task.Placement) error {
	if taskID.IsZero() {
		return NewValidationError("taskId", "must be a valid identifier")
	}
	if category == "" {
		return NewValidationError("category", "is required")
	}
	if err := checkLayout(layout); err != nil {
		return err
	}

	moved, err := s.repo.UpdateTask(ctx, taskID, task.Update{{Field: task.FieldCategory, Value: category}})
	if err != nil {
		logger.Error("Service: Ошибка смены категории", err, zap.String("task_id", taskID.Hex()))
		return NewStoreError("Failed to move task", err)
	}
	if moved.Matched == 0 {
		logger.Warn("Service: Перемещаемая задача не найдена",
			zap.String("task_id", taskID.Hex()),
			zap.String("category", category))
	}

	result, err := s.repo.ApplyPositions(ctx, layout)
	if err != nil {
		logger.Error("Service: Ошибка пакетного обновления позиций", err,
			zap.String("task_id", taskID.Hex()),
			zap.String("category", category))
		return NewStoreError("Failed to move task", err)
	}

	logger.Info("Service: Задача перемещена",
		zap.String("task_id", taskID.Hex()),
		zap.String("category", category),
		zap.Int64("modified", result.Modified))
	return nil
}

func (s *TaskService) PatchTask(ctx context.Context, id primitive.ObjectID, patch task.Patch) error {
	if patch.IsEmpty() {
		return NewBusinessError(CodeValidation, "At least one field must be provided to update.")
	}
	if patch.Position != nil && *patch.Position < 0 {
		return NewValidationError("position", "must be non-negative")
	}

	return s.update(ctx, "patch_task", id, patch.Update())
}

// ReplaceTask перезаписывает title, description и category, отсутствующие поля становятся null
func (s *TaskService) ReplaceTask(ctx context.Context, id primitive.ObjectID, replacement task.Replacement) error {
	return s.update(ctx, "replace_task", id, replacement.Update())
}

func (s *TaskService) update(ctx context.Context, operation string, id primitive.ObjectID, update task.Update) error {
	result, err := s.repo.UpdateTask(ctx, id, update)
	if err != nil {
		logger.Error("Service: Ошибка обновления задачи", err,
			zap.String("operation", operation),
			zap.String("task_id", id.Hex()))
		return NewStoreError("Error updating task", err)
	}

	// как и updateOne: задача без изменений неотличима от отсутствующей
	if result.Modified == 0 {
		logger.Info("Service: Задача не найдена или не изменилась",
			zap.String("task_id", id.Hex()),
			zap.Int64("matched", result.Matched))
		return NewNotFound("Task not found or no changes made", id.Hex())
	}
	return nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.repo.DeleteTask(ctx, id)
	if err != nil {
		logger.Error("Service: Ошибка удаления задачи", err, zap.String("task_id", id.Hex()))
		return NewStoreError("Error deleting task", err)
	}
	if deleted == 0 {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id.Hex()))
		return NewNotFound("Task not found", id.Hex())
	}
	return nil
}
