package targets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hookchatio/hookchat/internal/webhook"
)

var (
	ErrNotFound     = errors.New("webhook target not found")
	ErrNameRequired = errors.New("webhook target name is required")
)

// Service manages user webhook destinations. Target URLs always count as
// custom input, so the domain allow-list applies to every one of them.
type Service struct {
	store          Store
	logger         *slog.Logger
	allowedDomains []string
}

func NewService(log *slog.Logger, store Store, allowedDomains []string) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:          store,
		logger:         log.With(slog.String("service", "targets")),
		allowedDomains: allowedDomains,
	}
}

func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (Target, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Target{}, ErrNameRequired
	}
	canonical, err := webhook.Validate(req.URL, webhook.ValidateOptions{
		Custom:         true,
		AllowedDomains: s.allowedDomains,
	})
	if err != nil {
		return Target{}, err
	}

	target := Target{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		URL:       canonical,
		APISecret: strings.TrimSpace(req.APISecret),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, target); err != nil {
		return Target{}, fmt.Errorf("insert target: %w", err)
	}
	if req.Activate {
		if err := s.store.Activate(ctx, userID, target.ID); err != nil {
			return Target{}, fmt.Errorf("activate target: %w", err)
		}
		target.IsActive = true
	}
	s.logger.Info("webhook target created",
		slog.String("id", target.ID),
		slog.String("name", target.Name))
	return target, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Target, error) {
	target, ok, err := s.store.GetByID(ctx, userID, id)
	if err != nil {
		return Target{}, err
	}
	if !ok {
		return Target{}, ErrNotFound
	}
	return target, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Target, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID, id string, req CreateRequest) (Target, error) {
	target, err := s.Get(ctx, userID, id)
	if err != nil {
		return Target{}, err
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		target.Name = name
	}
	if strings.TrimSpace(req.URL) != "" {
		canonical, err := webhook.Validate(req.URL, webhook.ValidateOptions{
			Custom:         true,
			AllowedDomains: s.allowedDomains,
		})
		if err != nil {
			return Target{}, err
		}
		target.URL = canonical
	}
	if strings.TrimSpace(req.APISecret) != "" {
		target.APISecret = strings.TrimSpace(req.APISecret)
	}
	if err := s.store.Update(ctx, target); err != nil {
		return Target{}, fmt.Errorf("update target: %w", err)
	}
	if req.Activate && !target.IsActive {
		if err := s.store.Activate(ctx, userID, target.ID); err != nil {
			return Target{}, fmt.Errorf("activate target: %w", err)
		}
		target.IsActive = true
	}
	return target, nil
}

// Delete removes a target. Deleting the active one leaves no active target;
// there is no automatic fallback.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, userID, id)
}

func (s *Service) Activate(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.Activate(ctx, userID, id)
}

// Active returns the user's active destination as a dispatch target, or nil
// when none is active.
func (s *Service) Active(ctx context.Context, userID string) (*webhook.Target, error) {
	target, ok, err := s.store.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &webhook.Target{URL: target.URL, Secret: target.APISecret}, nil
}
