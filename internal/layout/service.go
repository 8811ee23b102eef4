// Package layout is the floor-plan and rack-layout engine. Every mutation of
// a floor plan's children runs inside one store transaction that holds the
// floor plan's lock, so placement checks and writes never race.
package layout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xelth-com/facilitymap/internal/models"
	"github.com/xelth-com/facilitymap/internal/store"
	"go.uber.org/zap"
)

// SnapshotCache keeps canonical floor-plan snapshots keyed by floor id.
// Generation is read before loading a snapshot and passed to Set; an entry
// stored under a generation that Invalidate has since bumped is never served.
type SnapshotCache interface {
	Generation(ctx context.Context, floorID string) (int64, bool)
	Get(ctx context.Context, floorID string) (*models.FloorPlan, bool)
	Set(ctx context.Context, floorID string, gen int64, fp *models.FloorPlan)
	Invalidate(ctx context.Context, floorID string)
}

// Change kinds published after commit
const (
	ChangeUpdated = "FLOORPLAN_UPDATED"
	ChangeDeleted = "FLOORPLAN_DELETED"
)

// ChangeEvent announces a committed change to a floor plan
type ChangeEvent struct {
	Kind        string    `json:"type"`
	FloorPlanID string    `json:"floorPlanId"`
	FloorID     string    `json:"floorId"`
	ActorID     string    `json:"actorId"`
	At          time.Time `json:"at"`
}

// Notifier receives change events once the transaction has committed
type Notifier interface {
	FloorPlanChanged(ev ChangeEvent)
}

// Service runs layout operations against a store
type Service struct {
	store   store.Store
	cache   SnapshotCache
	notify  Notifier
	log     *zap.Logger
	timeout time.Duration
	ids     Resolver
	now     func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithCache enables read-through caching of floor-plan snapshots
func WithCache(c SnapshotCache) Option { return func(s *Service) { s.cache = c } }

// WithNotifier publishes change events after commit
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notify = n } }

// WithTimeout bounds every transaction; on expiry it rolls back
func WithTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

// WithIDGenerator replaces the UUID generator
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.ids = NewResolver(fn) }
}

// NewService creates a layout service
func NewService(st store.Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:  st,
		cache:  noCache{},
		notify: noNotify{},
		log:    log,
		ids:    NewResolver(nil),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type noCache struct{}

func (noCache) Generation(context.Context, string) (int64, bool)       { return 0, false }
func (noCache) Get(context.Context, string) (*models.FloorPlan, bool) { return nil, false }
func (noCache) Set(context.Context, string, int64, *models.FloorPlan) {}
func (noCache) Invalidate(context.Context, string)                    {}

type noNotify struct{}

func (noNotify) FloorPlanChanged(ChangeEvent) {}

// tx runs fn in one bounded transaction and normalises the error
func (s *Service) tx(ctx context.Context, op string, fn func(tx store.Tx) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := s.store.Tx(ctx, fn)
	if err == nil {
		return nil
	}

	if le, ok := AsError(err); ok {
		s.log.Warn("layout operation rejected",
			zap.String("op", op),
			zap.String("code", string(le.Code)),
			zap.String("field", le.Field),
			zap.String("item_id", le.ItemID),
			zap.String("message", le.Message))
		return le
	}

	switch {
	case errors.Is(err, store.ErrDuplicate):
		s.log.Warn("layout operation rejected", zap.String("op", op), zap.Error(err))
		return Conflict("duplicate key", nil)
	case errors.Is(err, store.ErrNotFound):
		s.log.Warn("layout operation rejected", zap.String("op", op), zap.Error(err))
		return &Error{Code: CodeNotFound, Message: "referenced record not found"}
	}

	s.log.Error("layout transaction failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

// committed drops the cached snapshot and announces the change
func (s *Service) committed(ctx context.Context, kind, floorPlanID, floorID, actor string) {
	s.cache.Invalidate(ctx, floorID)
	s.notify.FloorPlanChanged(ChangeEvent{
		Kind:        kind,
		FloorPlanID: floorPlanID,
		FloorID:     floorID,
		ActorID:     actor,
		At:          s.now(),
	})
}

// touch stamps the floor plan's audit fields
func touch(tx store.Tx, plan *models.FloorPlan, actor string) error {
	if actor != "" {
		plan.UpdatedBy = &actor
	}
	return tx.UpdateFloorPlan(plan)
}

// checkID rejects ids that cannot name any row; postgres would otherwise
// fail the uuid cast
func checkID(entity, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return NotFound(entity, id)
	}
	return nil
}

// notFound maps store.ErrNotFound to a NOT_FOUND error for entity/id
func notFound(err error, entity, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return NotFound(entity, id)
	}
	return err
}

// withItem attaches the input path and item id to a layout error
func withItem(err error, field, itemID string) error {
	if le, ok := AsError(err); ok {
		return le.at(field, itemID)
	}
	return err
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
