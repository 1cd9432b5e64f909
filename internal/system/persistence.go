package system

import (
	"context"
	"fmt"
	"time"

	coresys "github.com/seatcraft/server/internal/core/system"
	"github.com/seatcraft/server/internal/persist"
	"github.com/seatcraft/server/internal/world"
	"go.uber.org/zap"
)

// WorldStore is where the persistence system writes. *persist.WorldRepo
// implements it.
type WorldStore interface {
	SaveBlocks(ctx context.Context, blocks []persist.BlockRow) error
	ReplaceEntities(ctx context.Context, entities []persist.EntityRow) error
}

// PersistenceSystem periodically saves changed blocks and the non-player
// entity snapshot. Phase 4 (Persist).
type PersistenceSystem struct {
	world     *world.State
	store     WorldStore
	log       *zap.Logger
	tickCount int
	interval  int // auto-save every N ticks

	// blocks whose last save failed; retried with the next save
	unsaved map[blockKey]persist.BlockRow
}

type blockKey struct {
	dim     string
	x, y, z int
}

func NewPersistenceSystem(ws *world.State, store WorldStore, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	return &PersistenceSystem{
		world:    ws,
		store:    store,
		log:      log,
		interval: intervalTicks,
		unsaved:  make(map[blockKey]persist.BlockRow),
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if err := s.Save(); err != nil {
		s.log.Error("world autosave failed", zap.Error(err))
	}
}

// Save writes everything changed since the last successful save. Called by
// the autosave, the console and at shutdown.
func (s *PersistenceSystem) Save() error {
	for _, row := range persist.BlockRowsFrom(s.world.TakeDirtyBlocks()) {
		s.unsaved[blockKey{row.Dimension, row.X, row.Y, row.Z}] = row
	}
	blocks := make([]persist.BlockRow, 0, len(s.unsaved))
	for _, row := range s.unsaved {
		blocks = append(blocks, row)
	}
	entities := persist.EntityRowsFrom(s.world.NonPlayerEntities())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.SaveBlocks(ctx, blocks); err != nil {
		return fmt.Errorf("save %d blocks: %w", len(blocks), err)
	}
	clear(s.unsaved)
	if err := s.store.ReplaceEntities(ctx, entities); err != nil {
		return fmt.Errorf("save %d entities: %w", len(entities), err)
	}
	s.log.Info("world saved", zap.Int("blocks", len(blocks)), zap.Int("entities", len(entities)))
	return nil
}
