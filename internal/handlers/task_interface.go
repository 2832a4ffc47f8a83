package handlers

import (
	"context"
	"taskManagement/internal/models/task"
	"taskManagement/internal/models/user"
	"taskManagement/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Service interface {
	ListTasks(context.Context, repository.TaskFilter) ([]*task.Task, error)
	CreateTask(context.Context, task.Draft) (*task.Task, error)
	ReorderTasks(ctx context.Context, category string, ids []primitive.ObjectID) error
	MoveTask(ctx context.Context, taskID primitive.ObjectID, category string, layout []task.Placement) error
	PatchTask(context.Context, primitive.ObjectID, task.Patch) error
	ReplaceTask(context.Context, primitive.ObjectID, task.Replacement) error
	DeleteTask(context.Context, primitive.ObjectID) error
	HealthCheck(context.Context) error
}

type UserService interface {
	ListUsers(context.Context) ([]user.User, error)
	CreateUser(context.Context, user.User) (repository.InsertResult, error)
}
