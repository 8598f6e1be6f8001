package handlers

import (
	"context"
	"time"

	"lxrose/internal/forms"
	"lxrose/internal/models"
)

// FormStore persists intake records.
type FormStore interface {
	InsertForm(ctx context.Context, kind *forms.Kind, doc map[string]any) (string, error)
	ListForms(ctx context.Context, kind *forms.Kind, q forms.Query) ([]forms.Record, error)
	TransitionForm(ctx context.Context, kind *forms.Kind, id string, tr forms.Transition, fields map[string]any) (bool, error)
	FormStats(ctx context.Context, kind *forms.Kind, now time.Time) (forms.Stats, error)
}

// UserStore persists console accounts and their embedded mail arrays.
type UserStore interface {
	CreateUser(ctx context.Context, u models.User) (string, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	AppendLegacyMessage(ctx context.Context, fromID, toID string, payload map[string]any) error
}

// MessageStore persists internal messages.
type MessageStore interface {
	InsertMessage(ctx context.Context, fromID, toID, body string) (models.Message, error)
	PushMailboxCopies(ctx context.Context, m models.Message) error
	MessagesInvolving(ctx context.Context, userID string) ([]models.Message, error)
	MessagesBetween(ctx context.Context, a, b string) ([]models.Message, error)
	MarkMessageRead(ctx context.Context, id string) error
	MarkConversationRead(ctx context.Context, readerID, partnerID string) (int64, error)
}

// Store is everything the router needs from persistence.
type Store interface {
	FormStore
	UserStore
	MessageStore
	Pinger
}

// TokenService issues and checks console bearer tokens.
type TokenService interface {
	Issue(userID string) (string, error)
	Parse(raw string) (string, error)
}
