package model

import "time"

// CalendarEvent mirrors the 'calendar_events' table.
type CalendarEvent struct {
	ID          uint64     `json:"id"`
	WorkspaceID uint64     `json:"workspace_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      time.Time  `json:"ends_at"`
	CreatedBy   uint64     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
