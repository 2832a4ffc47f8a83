package user

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const IDKey = "_id"

// User - произвольный JSON документ, схема не навязывается
type User map[string]any

// WithoutID возвращает копию без клиентского _id, идентификатор назначает хранилище
func (u User) WithoutID() User {
	clean := make(User, len(u))
	for k, v := range u {
		if k == IDKey {
			continue
		}
		clean[k] = v
	}
	return clean
}

func (u User) WithID(id primitive.ObjectID) User {
	withID := make(User, len(u)+1)
	for k, v := range u {
		withID[k] = v
	}
	withID[IDKey] = id
	return withID
}
