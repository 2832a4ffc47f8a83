package service

import (
	"fmt"
	"taskManagement/internal/models/task"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// nextPosition - позиция новой задачи в конце категории
func nextPosition(maxPosition int, found bool) int {
	if !found {
		return 0
	}
	return maxPosition + 1
}

// orderPlacements назначает position = индекс в переданной последовательности
func orderPlacements(ids []primitive.ObjectID) []task.Placement {
	placements := make([]task.Placement, 0, len(ids))
	for i, id := range ids {
		placements = append(placements, task.Placement{ID: id, Position: i})
	}
	return placements
}

// checkLayout проверяет только форму раскладки. Плотность, уникальность позиций
// и присутствие перемещаемой задачи остаются на совести клиента.
func checkLayout(layout []task.Placement) error {
	if len(layout) == 0 {
		return NewValidationError("tasks", "must contain at least one task")
	}
	for i, p := range layout {
		if p.ID.IsZero() {
			return NewValidationError(fmt.Sprintf("tasks[%d]._id", i), "must be a valid identifier")
		}
		if p.Position < 0 {
			return NewValidationError(fmt.Sprintf("tasks[%d].position", i), "must be non-negative")
		}
	}
	return nil
}
