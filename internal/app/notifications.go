package app

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// Notifications holds the dismissible messages raised by background work.
// Entries are kept for the process lifetime.
type Notifications struct {
	mu      sync.Mutex
	items   []domain.Notification
	entropy io.Reader
	now     func() time.Time
	logger  *slog.Logger
}

// NewNotifications creates an empty notification center.
func NewNotifications(logger *slog.Logger) *Notifications {
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifications{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
		logger:  logger.With(slog.String("component", "app.Notifications")),
	}
}

// Raise records a new notification and returns it.
func (n *Notifications) Raise(ctx context.Context, message string, action domain.NotificationAction) domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	note := domain.Notification{
		ID:        ulid.MustNew(ulid.Timestamp(now), n.entropy).String(),
		Message:   message,
		Action:    action,
		CreatedAt: now,
	}

	n.items = append(n.items, note)

	n.logger.InfoContext(ctx, "notification raised",
		slog.String("notification_id", note.ID),
		slog.String("action", string(action)),
	)

	return note
}

// Active returns notifications that have not been dismissed, oldest first.
func (n *Notifications) Active() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	active := make([]domain.Notification, 0, len(n.items))
	for _, note := range n.items {
		if !note.Dismissed {
			active = append(active, note)
		}
	}

	return active
}

// Get returns an active notification by ID.
func (n *Notifications) Get(id string) (domain.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	i := n.indexOf(id)
	if i < 0 {
		return domain.Notification{}, domain.NewNotFoundError("notification", id)
	}

	return n.items[i], nil
}

// Dismiss marks a notification as dismissed.
func (n *Notifications) Dismiss(ctx context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	i := n.indexOf(id)
	if i < 0 {
		return domain.NewNotFoundError("notification", id)
	}

	n.items[i].Dismissed = true

	n.logger.DebugContext(ctx, "notification dismissed", slog.String("notification_id", id))

	return nil
}

// indexOf returns the position of an active notification, or -1.
func (n *Notifications) indexOf(id string) int {
	for i, note := range n.items {
		if note.ID == id && !note.Dismissed {
			return i
		}
	}

	return -1
}

// Redisplay performs a notification's redisplay action: it selects a fresh
// quote with the persisted filter and dismisses the notification.
func (n *Notifications) Redisplay(ctx context.Context, id string, quotes *QuoteService) (Selection, error) {
	note, err := n.Get(id)
	if err != nil {
		return Selection{}, err
	}

	if note.Action != domain.ActionRedisplay {
		return Selection{}, domain.NewValidationErrorWithValue("action", "notification has no redisplay action", string(note.Action))
	}

	sel, err := quotes.RandomQuote(ctx, "")
	if err != nil {
		return Selection{}, err
	}

	if err := n.Dismiss(ctx, id); err != nil {
		return Selection{}, err
	}

	return sel, nil
}
