package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/davidxiao93/TouchWall/internal/screen"
)

// GeometryRepository persists the active wall rectangle.
type GeometryRepository struct {
	db *sql.DB
}

// Geometry returns the geometry repository for this store.
func (s *Store) Geometry() *GeometryRepository {
	return &GeometryRepository{db: s.db}
}

// Load returns the saved geometry. It returns ErrNotFound before the first
// save. The row is returned as stored; callers validate it.
func (r *GeometryRepository) Load() (screen.Geometry, error) {
	var g screen.Geometry

	err := r.db.QueryRow(
		`SELECT top_edge, bottom_edge, left_edge, right_edge,
		        down_threshold, up_threshold, move_threshold, detect_threshold
		 FROM screen_geometry WHERE id = 1`,
	).Scan(&g.Top, &g.Bottom, &g.Left, &g.Right, &g.Down, &g.Up, &g.Move, &g.Detect)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return screen.Geometry{}, ErrNotFound
		}
		return screen.Geometry{}, err
	}

	return g, nil
}

// Save replaces the stored geometry. Invalid geometry is refused.
func (r *GeometryRepository) Save(g screen.Geometry) error {
	if err := g.Validate(); err != nil {
		return err
	}

	_, err := r.db.Exec(
		`INSERT INTO screen_geometry (id, top_edge, bottom_edge, left_edge, right_edge,
		                              down_threshold, up_threshold, move_threshold, detect_threshold, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   top_edge = excluded.top_edge,
		   bottom_edge = excluded.bottom_edge,
		   left_edge = excluded.left_edge,
		   right_edge = excluded.right_edge,
		   down_threshold = excluded.down_threshold,
		   up_threshold = excluded.up_threshold,
		   move_threshold = excluded.move_threshold,
		   detect_threshold = excluded.detect_threshold,
		   updated_at = excluded.updated_at`,
		g.Top, g.Bottom, g.Left, g.Right, g.Down, g.Up, g.Move, g.Detect, time.Now(),
	)
	return err
}

// LoadGeometry returns the saved geometry, or the defaults when nothing is
// saved or the saved row fails validation.
func (s *Store) LoadGeometry() screen.Geometry {
	g, err := s.Geometry().Load()
	switch {
	case errors.Is(err, ErrNotFound):
		return screen.DefaultGeometry()
	case err != nil:
		log.Printf("Failed to load screen geometry, using defaults: %v", err)
		return screen.DefaultGeometry()
	}

	if err := g.Validate(); err != nil {
		log.Printf("Stored screen geometry is invalid, using defaults: %v", err)
		return screen.DefaultGeometry()
	}
	return g
}

// SaveGeometry stores g. It lets the store act as the session's saver.
func (s *Store) SaveGeometry(g screen.Geometry) error {
	if err := s.Geometry().Save(g); err != nil {
		return fmt.Errorf("save geometry: %w", err)
	}
	return nil
}
