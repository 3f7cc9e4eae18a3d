package model

// Notification is a persistent, user-facing message. A second notification
// with the same ID replaces the first.
type Notification struct {
	ID      string `json:"notification_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
