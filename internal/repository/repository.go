package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrUnsupportedField = errors.New("поле не поддерживается")

// TaskFilter - условия выборки списка задач
type TaskFilter struct {
	Category       string
	SortByPosition bool
}

// UpdateResult повторяет семантику updateOne: Matched - найдено, Modified - реально изменено
type UpdateResult struct {
	Matched  int64
	Modified int64
}

type BatchResult struct {
	Matched  int64
	Modified int64
}

type InsertResult struct {
	Acknowledged bool               `json:"acknowledged"`
	InsertedID   primitive.ObjectID `json:"insertedId"`
}
