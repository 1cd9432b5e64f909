package persist

import (
	"context"
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jackc/pgx/v5"
	"github.com/seatcraft/server/internal/world"
)

// BlockRow is one stored block.
type BlockRow struct {
	Dimension string
	X, Y, Z   int
	TypeID    string
	States    map[string]string
}

// EntityRow is one stored non-player entity.
type EntityRow struct {
	Dimension string
	TypeID    string
	X, Y, Z   float64
	Pitch     float64
	Yaw       float64
}

// WorldRepo stores blocks and non-player entities.
type WorldRepo struct {
	db *DB
}

func NewWorldRepo(db *DB) *WorldRepo {
	return &WorldRepo{db: db}
}

// LoadBlocks returns every stored block.
func (r *WorldRepo) LoadBlocks(ctx context.Context) ([]BlockRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT dimension, x, y, z, type_id, states FROM world_blocks ORDER BY dimension, x, y, z`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BlockRow
	for rows.Next() {
		var b BlockRow
		if err := rows.Scan(&b.Dimension, &b.X, &b.Y, &b.Z, &b.TypeID, &b.States); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// SaveBlocks writes changed blocks in one transaction. Air rows delete the
// stored block; everything else is upserted.
func (r *WorldRepo) SaveBlocks(ctx context.Context, blocks []BlockRow) error {
	if len(blocks) == 0 {
		return nil
	}
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		for _, b := range blocks {
			if b.TypeID == world.AirType {
				if _, err := tx.Exec(ctx,
					`DELETE FROM world_blocks WHERE dimension = $1 AND x = $2 AND y = $3 AND z = $4`,
					b.Dimension, b.X, b.Y, b.Z,
				); err != nil {
					return fmt.Errorf("delete block %s (%d, %d, %d): %w", b.Dimension, b.X, b.Y, b.Z, err)
				}
				continue
			}
			states := b.States
			if states == nil {
				states = map[string]string{}
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO world_blocks (dimension, x, y, z, type_id, states, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, now())
				 ON CONFLICT (dimension, x, y, z)
				 DO UPDATE SET type_id = EXCLUDED.type_id, states = EXCLUDED.states, updated_at = now()`,
				b.Dimension, b.X, b.Y, b.Z, b.TypeID, states,
			); err != nil {
				return fmt.Errorf("upsert block %s (%d, %d, %d): %w", b.Dimension, b.X, b.Y, b.Z, err)
			}
		}
		return nil
	})
}

// LoadEntities returns the stored entity snapshot.
func (r *WorldRepo) LoadEntities(ctx context.Context) ([]EntityRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT dimension, type_id, x, y, z, pitch, yaw FROM world_entities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EntityRow
	for rows.Next() {
		var e EntityRow
		if err := rows.Scan(&e.Dimension, &e.TypeID, &e.X, &e.Y, &e.Z, &e.Pitch, &e.Yaw); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// ReplaceEntities swaps the stored entity snapshot for entities. The inserts
// go out as one batch.
func (r *WorldRepo) ReplaceEntities(ctx context.Context, entities []EntityRow) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM world_entities`); err != nil {
			return fmt.Errorf("clear entities: %w", err)
		}
		if len(entities) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, e := range entities {
			batch.Queue(
				`INSERT INTO world_entities (dimension, type_id, x, y, z, pitch, yaw)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				e.Dimension, e.TypeID, e.X, e.Y, e.Z, e.Pitch, e.Yaw)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert %d entities: %w", len(entities), err)
		}
		return nil
	})
}

// ── Conversions ────────────────────────────────────────────────────

// BlockRowsFrom converts dirty block records to rows. Removed blocks become
// air rows.
func BlockRowsFrom(records []world.BlockRecord) []BlockRow {
	out := make([]BlockRow, 0, len(records))
	for _, rec := range records {
		out = append(out, BlockRow{
			Dimension: rec.Dimension,
			X:         rec.Pos.X(),
			Y:         rec.Pos.Y(),
			Z:         rec.Pos.Z(),
			TypeID:    rec.Block.TypeID,
			States:    rec.Block.States,
		})
	}
	return out
}

// EntityRowsFrom converts live entity snapshots to rows.
func EntityRowsFrom(entities []world.Entity) []EntityRow {
	out := make([]EntityRow, 0, len(entities))
	for _, e := range entities {
		out = append(out, EntityRow{
			Dimension: e.Dimension,
			TypeID:    e.TypeID,
			X:         e.Pos.X(),
			Y:         e.Pos.Y(),
			Z:         e.Pos.Z(),
			Pitch:     e.Pitch,
			Yaw:       e.Yaw,
		})
	}
	return out
}

// Restore loads stored rows into ws without marking anything dirty. Rows for
// dimensions ws does not know are skipped. Returns the blocks and entities
// restored.
func Restore(ws *world.State, blocks []BlockRow, entities []EntityRow) (int, int) {
	nb := 0
	for _, b := range blocks {
		p := world.Permutation{TypeID: b.TypeID, States: b.States}
		if ws.LoadBlock(b.Dimension, cube.Pos{b.X, b.Y, b.Z}, p) {
			nb++
		}
	}
	ne := 0
	for _, e := range entities {
		id, ok := ws.SpawnEntity(e.Dimension, e.TypeID, mgl64.Vec3{e.X, e.Y, e.Z})
		if !ok {
			continue
		}
		ws.SetRotation(id, e.Pitch, e.Yaw)
		ne++
	}
	return nb, ne
}
