package task

import (
	"time"
)

// PatchOption включает одно поле в частичное обновление.
// Конструкторы возвращают nil для "пустых" значений - такое поле не трогаем.
type PatchOption func(*Patch)

type Patch struct {
	Title       *string
	Description *string
	Category    *string
	Position    *int
	DueDate     *time.Time
}

func NewPatch(options ...PatchOption) Patch {
	var patch Patch
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&patch)
	}
	return patch
}

func WithTitle(title string) PatchOption {
	if title == "" {
		return nil
	}
	return func(p *Patch) {
		p.Title = &title
	}
}

func WithDescription(description string) PatchOption {
	if description == "" {
		return nil
	}
	return func(p *Patch) {
		p.Description = &description
	}
}

func WithCategory(category string) PatchOption {
	if category == "" {
		return nil
	}
	return func(p *Patch) {
		p.Category = &category
	}
}

// 0 - валидная позиция, пропускаем только отсутствующее значение
func WithPosition(position *int) PatchOption {
	if position == nil {
		return nil
	}
	value := *position
	return func(p *Patch) {
		p.Position = &value
	}
}

func WithDueDate(dueDate *time.Time) PatchOption {
	if dueDate == nil {
		return nil
	}
	value := *dueDate
	return func(p *Patch) {
		p.DueDate = &value
	}
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Position == nil && p.DueDate == nil
}

// Update переводит патч в присваивания, отсутствующие поля не попадают в результат
func (p Patch) Update() Update {
	update := Update{}
	if p.Title != nil {
		update = append(update, Assignment{Field: FieldTitle, Value: *p.Title})
	}
	if p.Description != nil {
		update = append(update, Assignment{Field: FieldDescription, Value: *p.Description})
	}
	if p.Category != nil {
		update = append(update, Assignment{Field: FieldCategory, Value: *p.Category})
	}
	if p.Position != nil {
		update = append(update, Assignment{Field: FieldPosition, Value: *p.Position})
	}
	if p.DueDate != nil {
		update = append(update, Assignment{Field: FieldDueDate, Value: *p.DueDate})
	}
	return update
}

// Replacement - полная перезапись title, description и category.
// Отсутствующее поле записывается как null.
type Replacement struct {
	Title       *string
	Description *string
	Category    *string
}

func (r Replacement) Update() Update {
	return Update{
		{Field: FieldTitle, Value: textOrNull(r.Title)},
		{Field: FieldDescription, Value: textOrNull(r.Description)},
		{Field: FieldCategory, Value: textOrNull(r.Category)},
	}
}

func textOrNull(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
