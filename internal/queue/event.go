// Package queue defines the message payloads exchanged over the broker and
// the publisher/consumer for search-index synchronization.
package queue

// TodoIndexQueue is the durable queue carrying index-sync events.
const TodoIndexQueue = "todo.index"

// Index event actions.
const (
	IndexActionUpsert = "upsert"
	IndexActionDelete = "delete"
)

// TodoIndexEvent is published whenever a todo is created, updated or
// deleted. Downstream index writers get enough to update their documents
// without querying the primary database.
type TodoIndexEvent struct {
	Action      string `json:"action"` // "upsert" or "delete"
	TodoID      uint64 `json:"todo_id"`
	WorkspaceID uint64 `json:"workspace_id"`
	Title       string `json:"title,omitempty"`
	Status      string `json:"status,omitempty"`
	UpdatedAt   string `json:"updated_at"` // RFC 3339, UTC
}
