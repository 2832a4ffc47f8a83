package task

import (
	"fmt"
	"strings"
	"time"
)

var dueDateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDueDate разбирает дату из запроса. Пустая строка означает отсутствие даты.
func ParseDueDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	for _, layout := range dueDateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			due := parsed.UTC()
			return &due, nil
		}
	}
	return nil, fmt.Errorf("неизвестный формат даты %q", value)
}
