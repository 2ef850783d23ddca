// Package domain contains core business entities and rules.
package domain

import (
	"fmt"
	"strings"
)

// NoQuotesMessage is the display text used when a selection finds nothing.
const NoQuotesMessage = "No quotes available."

// Quote is a single quotation tagged with a category.
// It has no identity: two quotes are equal when text and category match.
type Quote struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// NewQuote trims the inputs and validates that both are non-empty.
func NewQuote(text, category string) (Quote, error) {
	q := Quote{
		Text:     strings.TrimSpace(text),
		Category: strings.TrimSpace(category),
	}

	if q.Text == "" {
		return Quote{}, NewValidationErrorWithValue("text", MissingFieldsMessage, text)
	}

	if q.Category == "" {
		return Quote{}, NewValidationErrorWithValue("category", MissingFieldsMessage, category)
	}

	return q, nil
}

// Equal reports structural equality.
func (q Quote) Equal(other Quote) bool {
	return q.Text == other.Text && q.Category == other.Category
}

// Display renders the quote for a text surface.
func (q Quote) Display() string {
	return fmt.Sprintf("\"%s\" — %s", q.Text, q.Category)
}

// AddedMessage is the confirmation shown after a quote is added.
func (q Quote) AddedMessage() string {
	return "New quote added: " + q.Display()
}

// DefaultQuotes returns the collection used to seed an empty store.
func DefaultQuotes() []Quote {
	return []Quote{
		{
			Text:     "The only limit to our realization of tomorrow is our doubts of today.",
			Category: "Motivation",
		},
		{
			Text:     "Life is what happens when you're busy making other plans.",
			Category: "Life",
		},
		{
			Text:     "To be or not to be, that is the question.",
			Category: "Philosophy",
		},
	}
}
