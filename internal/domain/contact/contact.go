package contact

import (
	"context"
	"errors"
	"time"
)

var ErrMissingField = errors.New("contact: name, email and message are required")

type Message struct {
	ID        string
	Name      string
	Email     string
	Body      string
	CreatedAt time.Time
}

func New(id, name, email, body string) (*Message, error) {
	if id == "" || name == "" || email == "" || body == "" {
		return nil, ErrMissingField
	}
	return &Message{
		ID:        id,
		Name:      name,
		Email:     email,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type Repository interface {
	Insert(ctx context.Context, m *Message) error
	// List returns messages ordered most-recent-first.
	List(ctx context.Context) ([]*Message, error)
}
