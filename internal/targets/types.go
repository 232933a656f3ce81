package targets

import (
	"context"
	"time"
)

// Target is a named, user-managed webhook destination.
type Target struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	APISecret string    `json:"apiSecret,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists targets. Activate must atomically clear any previously
// active target in the same user scope; deleting the active target leaves no
// active pointer behind.
type Store interface {
	Insert(ctx context.Context, target Target) error
	GetByID(ctx context.Context, userID, id string) (Target, bool, error)
	ListByUser(ctx context.Context, userID string) ([]Target, error)
	Update(ctx context.Context, target Target) error
	Delete(ctx context.Context, userID, id string) error
	Activate(ctx context.Context, userID, id string) error
	GetActive(ctx context.Context, userID string) (Target, bool, error)
}

// CreateRequest is the input for creating or updating a target.
type CreateRequest struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	APISecret string `json:"apiSecret"`
	Activate  bool   `json:"activate"`
}
