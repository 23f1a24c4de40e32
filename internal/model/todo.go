package model

import "time"

// Todo status values stored in the ENUM column.
const (
	TodoOpen       = "OPEN"
	TodoInProgress = "IN_PROGRESS"
	TodoDone       = "DONE"
)

// ValidTodoStatus reports whether s is one of the allowed status values.
func ValidTodoStatus(s string) bool {
	return s == TodoOpen || s == TodoInProgress || s == TodoDone
}

// Todo mirrors the 'todos' table.
type Todo struct {
	ID          uint64     `json:"id"`
	WorkspaceID uint64     `json:"workspace_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	DueAt       *time.Time `json:"due_at"`
	AssigneeID  *uint64    `json:"assignee_id"`
	CreatedBy   uint64     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
