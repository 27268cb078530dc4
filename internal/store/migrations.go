package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Screen geometry - a single row holding the active wall rectangle
		`CREATE TABLE IF NOT EXISTS screen_geometry (
			id INTEGER PRIMARY KEY CHECK(id = 1),
			top_edge REAL NOT NULL,
			bottom_edge REAL NOT NULL,
			left_edge REAL NOT NULL,
			right_edge REAL NOT NULL,
			down_threshold REAL NOT NULL,
			up_threshold REAL NOT NULL,
			move_threshold REAL NOT NULL,
			detect_threshold REAL NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Calibration runs - one row per begin_calibration, closed on finish
		`CREATE TABLE IF NOT EXISTS calibration_runs (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL CHECK(status IN ('running', 'completed', 'cancelled', 'rejected')),
			before_top REAL NOT NULL,
			before_bottom REAL NOT NULL,
			before_left REAL NOT NULL,
			before_right REAL NOT NULL,
			after_top REAL,
			after_bottom REAL,
			after_left REAL,
			after_right REAL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_calibration_runs_started_at ON calibration_runs(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
