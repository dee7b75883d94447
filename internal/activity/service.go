package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/craftlane/storefront-backend/pkg/config"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
	"github.com/craftlane/storefront-backend/pkg/logger"
)

// OrderEvent is one entry in the storefront's recent-activity widget.
type OrderEvent struct {
	City     string    `json:"city"`
	ItemName string    `json:"item_name"`
	PlacedAt time.Time `json:"placed_at"`
}

type feedStore interface {
	PushCapped(ctx context.Context, key string, value any, size int64) error
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ActivityFeedKey() string
}

// Service maintains the capped list of recent order events.
type Service struct {
	store feedStore
	cfg   config.ActivityConfig
	log   *logger.Logger
}

// NewService constructs an activity feed service.
func NewService(store feedStore, cfg config.ActivityConfig, log *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("feed store required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{store: store, cfg: cfg, log: log}, nil
}

// Publish records an order event. The feed is decoration, so failures are
// logged and swallowed rather than surfaced to the checkout path.
func (s *Service) Publish(ctx context.Context, event OrderEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Warn(ctx, "activity feed: marshal event failed")
		return
	}
	if err := s.store.PushCapped(ctx, s.store.ActivityFeedKey(), payload, int64(s.cfg.FeedSize)); err != nil {
		s.log.Warn(ctx, "activity feed: push failed")
	}
}

// Recent returns up to n most-recent order events, newest first.
func (s *Service) Recent(ctx context.Context, n int) ([]OrderEvent, error) {
	if n <= 0 || n > s.cfg.FeedSize {
		n = s.cfg.FeedSize
	}
	raw, err := s.store.ListRange(ctx, s.store.ActivityFeedKey(), 0, int64(n-1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: read activity feed")
	}

	events := make([]OrderEvent, 0, len(raw))
	for _, entry := range raw {
		var event OrderEvent
		if err := json.Unmarshal([]byte(entry), &event); err != nil {
			// Skip entries written by an older shape.
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
