package domain

import "time"

// NotificationAction names what a user can do from a notification.
type NotificationAction string

const (
	// ActionRedisplay shows a fresh random quote.
	ActionRedisplay NotificationAction = "redisplay"
)

// SyncUpdatedMessage is raised after the remote replaced the local collection.
const SyncUpdatedMessage = "Quotes updated from server."

// Notification is a dismissible message offering a follow-up action.
type Notification struct {
	ID        string
	Message   string
	Action    NotificationAction
	CreatedAt time.Time
	Dismissed bool
}

// SyncOutcome describes the result of one reconciliation pass.
type SyncOutcome struct {
	// Replaced is true when the remote sequence overwrote the local one.
	Replaced bool

	// Skipped is true when another sync was already running.
	Skipped bool

	Previous  int
	Current   int
	Discarded int

	// Notification is set when Replaced is true.
	Notification *Notification
}
