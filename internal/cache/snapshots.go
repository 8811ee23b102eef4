package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/xelth-com/facilitymap/internal/models"
	"go.uber.org/zap"
)

const (
	keyPrefix = "facilitymap:floorplan:"
	genPrefix = "facilitymap:floorplan-gen:"
)

// Snapshots caches floor-plan snapshots by floor id. Cache failures are
// logged and treated as misses; the database stays authoritative.
//
// Every floor has a generation counter that Invalidate bumps. An entry
// records the generation its reader saw before loading, and Get only serves
// entries whose generation is still current, so a fill that lost a race
// against a commit is never returned.
type Snapshots struct {
	kv  KV
	ttl time.Duration
	log *zap.Logger
}

type entry struct {
	Gen  int64             `json:"gen"`
	Plan *models.FloorPlan `json:"plan"`
}

func NewSnapshots(kv KV, ttl time.Duration, log *zap.Logger) *Snapshots {
	if log == nil {
		log = zap.NewNop()
	}
	return &Snapshots{kv: kv, ttl: ttl, log: log}
}

func key(floorID string) string    { return keyPrefix + floorID }
func genKey(floorID string) string { return genPrefix + floorID }

// Generation returns the floor's current generation. ok is false when it
// cannot be read, in which case the caller must not fill the cache.
func (s *Snapshots) Generation(ctx context.Context, floorID string) (gen int64, ok bool) {
	raw, err := s.kv.Get(ctx, genKey(floorID))
	if errors.Is(err, ErrMiss) {
		return 0, true
	}
	if err != nil {
		s.log.Warn("snapshot generation read failed", zap.String("floor_id", floorID), zap.Error(err))
		return 0, false
	}
	gen, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.log.Warn("snapshot generation corrupt", zap.String("floor_id", floorID), zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (s *Snapshots) Get(ctx context.Context, floorID string) (*models.FloorPlan, bool) {
	raw, err := s.kv.Get(ctx, key(floorID))
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			s.log.Warn("snapshot cache read failed", zap.String("floor_id", floorID), zap.Error(err))
		}
		return nil, false
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil || e.Plan == nil {
		s.log.Warn("snapshot cache entry corrupt", zap.String("floor_id", floorID), zap.Error(err))
		_ = s.kv.Del(ctx, key(floorID))
		return nil, false
	}
	cur, ok := s.Generation(ctx, floorID)
	if !ok || cur != e.Gen {
		return nil, false
	}
	return e.Plan, true
}

// Set stores fp as loaded under generation gen
func (s *Snapshots) Set(ctx context.Context, floorID string, gen int64, fp *models.FloorPlan) {
	raw, err := json.Marshal(entry{Gen: gen, Plan: fp})
	if err != nil {
		s.log.Warn("snapshot encode failed", zap.String("floor_id", floorID), zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, key(floorID), string(raw), s.ttl); err != nil {
		s.log.Warn("snapshot cache write failed", zap.String("floor_id", floorID), zap.Error(err))
	}
}

func (s *Snapshots) Invalidate(ctx context.Context, floorID string) {
	if _, err := s.kv.Incr(ctx, genKey(floorID)); err != nil {
		s.log.Warn("snapshot generation bump failed", zap.String("floor_id", floorID), zap.Error(err))
	}
	if err := s.kv.Del(ctx, key(floorID)); err != nil {
		s.log.Warn("snapshot cache invalidate failed", zap.String("floor_id", floorID), zap.Error(err))
	}
}
