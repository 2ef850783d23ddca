package dto

import (
	"time"

	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// Quote is the wire form of a quote. It matches the export file format.
type Quote struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// AddQuoteRequest is the body of POST /quotes. Emptiness is checked by the
// domain so every surface reports the same message.
type AddQuoteRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// AddQuoteResponse confirms an added quote.
type AddQuoteResponse struct {
	Quote   Quote  `json:"quote"`
	Message string `json:"message"`
}

// SetFilterRequest is the body of PUT /filter.
type SetFilterRequest struct {
	Category string `json:"category" validate:"notempty"`
}

// FilterResponse reports the stored filter.
type FilterResponse struct {
	Filter string `json:"filter"`
}

// RandomQuoteRequest carries the optional category override.
type RandomQuoteRequest struct {
	Category string `form:"category"`
}

// RandomQuoteResponse is a selection result. Quote is nil when Found is false.
type RandomQuoteResponse struct {
	Quote   *Quote `json:"quote"`
	Found   bool   `json:"found"`
	Filter  string `json:"filter"`
	Display string `json:"display"`
}

// CategoriesResponse is the filter selector content.
type CategoriesResponse struct {
	Options  []string `json:"options"`
	Selected string   `json:"selected"`
}

// ImportResponse reports how many quotes an import appended.
type ImportResponse struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
}

// ExportFileResponse reports where the export file was written.
type ExportFileResponse struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// Notification is the wire form of a notification.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationsResponse lists active notifications.
type NotificationsResponse struct {
	Items []Notification `json:"items"`
}

// SyncResponse reports one reconciliation pass.
type SyncResponse struct {
	Replaced     bool          `json:"replaced"`
	Skipped      bool          `json:"skipped"`
	Previous     int           `json:"previous"`
	Current      int           `json:"current"`
	Discarded    int           `json:"discarded"`
	Notification *Notification `json:"notification,omitempty"`
}

// FromQuote converts a domain quote.
func FromQuote(q domain.Quote) Quote {
	return Quote{Text: q.Text, Category: q.Category}
}

// FromSelection converts a selection result.
func FromSelection(sel app.Selection) RandomQuoteResponse {
	resp := RandomQuoteResponse{
		Found:   sel.Found,
		Filter:  sel.Filter,
		Display: sel.Display(),
	}

	if sel.Found {
		q := FromQuote(sel.Quote)
		resp.Quote = &q
	}

	return resp
}

// FromNotification converts a domain notification.
func FromNotification(n domain.Notification) Notification {
	return Notification{
		ID:        n.ID,
		Message:   n.Message,
		Action:    string(n.Action),
		CreatedAt: n.CreatedAt,
	}
}

// FromSyncOutcome converts a sync outcome.
func FromSyncOutcome(o domain.SyncOutcome) SyncResponse {
	resp := SyncResponse{
		Replaced:  o.Replaced,
		Skipped:   o.Skipped,
		Previous:  o.Previous,
		Current:   o.Current,
		Discarded: o.Discarded,
	}

	if o.Notification != nil {
		n := FromNotification(*o.Notification)
		resp.Notification = &n
	}

	return resp
}
