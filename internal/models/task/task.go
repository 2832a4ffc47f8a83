package task

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Task struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Category    string             `json:"category" bson:"category"`
	Position    int                `json:"position" bson:"position"`
	Timestamp   time.Time          `json:"timestamp" bson:"timestamp"`
	DueDate     *time.Time         `json:"dueDate" bson:"dueDate"`
}

// Draft - входные данные для создания задачи, позиция вычисляется сервисом
type Draft struct {
	Title       string
	Description string
	Category    string
	DueDate     *time.Time
}

// Placement - желаемая позиция задачи внутри категории
type Placement struct {
	ID       primitive.ObjectID
	Position int
}

type Field string

const FieldTitle Field = "title"
const FieldDescription Field = "description"
const FieldCategory Field = "category"
const FieldPosition Field = "position"
const FieldDueDate Field = "dueDate"

// Assignment присваивает значение одному полю. Value == nil записывает null.
type Assignment struct {
	Field Field
	Value any
}

// Update - набор присваиваний в стиле $set
type Update []Assignment

func (u Update) Fields() []Field {
	fields := make([]Field, 0, len(u))
	for _, a := range u {
		fields = append(fields, a.Field)
	}
	return fields
}

// Apply применяет присваивания к задаче и сообщает, изменилось ли хоть одно поле
func (t *Task) Apply(u Update) bool {
	changed := false
	for _, a := range u {
		switch a.Field {
		case FieldTitle:
			changed = setText(&t.Title, a.Value) || changed
		case FieldDescription:
			changed = setText(&t.Description, a.Value) || changed
		case FieldCategory:
			changed = setText(&t.Category, a.Value) || changed
		case FieldPosition:
			position, _ := a.Value.(int)
			if t.Position != position {
				t.Position = position
				changed = true
			}
		case FieldDueDate:
			var next *time.Time
			if due, ok := a.Value.(time.Time); ok {
				next = &due
			}
			if !sameTime(t.DueDate, next) {
				t.DueDate = next
				changed = true
			}
		}
	}
	return changed
}

func (t *Task) Clone() *Task {
	clone := *t
	if t.DueDate != nil {
		due := *t.DueDate
		clone.DueDate = &due
	}
	return &clone
}

func setText(target *string, value any) bool {
	next, _ := value.(string)
	if *target == next {
		return false
	}
	*target = next
	return true
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
