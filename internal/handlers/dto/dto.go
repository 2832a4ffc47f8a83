package dto

import (
	"taskManagement/internal/models/task"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	DueDate     *string `json:"dueDate,omitempty"`
}

type ReorderTasksRequest struct {
	Category string   `json:"category" validate:"required"`
	Tasks    []string `json:"tasks" validate:"required,min=1,dive,required"`
}

type PlacementRequest struct {
	ID       string `json:"_id" validate:"required"`
	Position *int   `json:"position" validate:"required,min=0"`
}

type MoveTaskRequest struct {
	TaskID   string             `json:"taskId" validate:"required"`
	Category string             `json:"category" validate:"required"`
	Tasks    []PlacementRequest `json:"tasks" validate:"required,min=1,dive"`
}

// PatchTaskRequest: пустые строки считаются отсутствующими полями
type PatchTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Position    *int    `json:"position,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
}

type ReplaceTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

type TaskResponse struct {
	ID          primitive.ObjectID `json:"_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Position    int                `json:"position"`
	Timestamp   time.Time          `json:"timestamp"`
	DueDate     *time.Time         `json:"dueDate"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Position:    t.Position,
		Timestamp:   t.Timestamp,
		DueDate:     t.DueDate,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

func (r PatchTaskRequest) text(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// Options переводит запрос в опции патча. dueDate уже разобран вызывающим кодом.
func (r PatchTaskRequest) Options(dueDate *time.Time) []task.PatchOption {
	return []task.PatchOption{
		task.WithTitle(r.text(r.Title)),
		task.WithDescription(r.text(r.Description)),
		task.WithCategory(r.text(r.Category)),
		task.WithPosition(r.Position),
		task.WithDueDate(dueDate),
	}
}

func (r ReplaceTaskRequest) Replacement() task.Replacement {
	return task.Replacement{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
	}
}
