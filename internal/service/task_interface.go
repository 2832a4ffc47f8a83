package service

import (
	"context"
	"taskManagement/internal/models/task"
	"taskManagement/internal/models/user"
	"taskManagement/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskRepository interface {
	ListTasks(context.Context, repository.TaskFilter) ([]*task.Task, error)
	MaxPosition(ctx context.Context, category string) (int, bool, error)
	InsertTask(context.Context, *task.Task) error
	UpdateTask(context.Context, primitive.ObjectID, task.Update) (repository.UpdateResult, error)
	DeleteTask(context.Context, primitive.ObjectID) (int64, error)
	ApplyPositions(context.Context, []task.Placement) (repository.BatchResult, error)
	HealthCheck(context.Context) error
}

type UserRepository interface {
	ListUsers(context.Context) ([]user.User, error)
	InsertUser(context.Context, user.User) (repository.InsertResult, error)
}

// Repository - полный шлюз к хранилищу, его реализуют все бэкенды
type Repository interface {
	TaskRepository
	UserRepository
	Close(context.Context) error
}
