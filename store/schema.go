package store

// Schema is the complete relational schema. Every statement is IF NOT
// EXISTS, so InitSchema is safe to call on an already-populated store.
const Schema = `
-- Canonical openings, keyed by FEN position
CREATE TABLE IF NOT EXISTS openings (
    fen         TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    eco         TEXT NOT NULL,
    aliases     TEXT NOT NULL DEFAULT '[]',
    created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_openings_eco ON openings(eco);

-- Videos, keyed by platform video id
CREATE TABLE IF NOT EXISTS videos (
    id            TEXT PRIMARY KEY,
    title         TEXT NOT NULL,
    channel       TEXT NOT NULL DEFAULT '',
    duration      INTEGER NOT NULL DEFAULT 0,
    view_count    INTEGER NOT NULL DEFAULT 0,
    published_at  INTEGER,
    thumbnail     TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_videos_published ON videos(published_at DESC);
CREATE INDEX IF NOT EXISTS idx_videos_channel ON videos(channel);

-- Opening <-> video relationships with a bounded match score
CREATE TABLE IF NOT EXISTS opening_videos (
    opening_fen  TEXT NOT NULL REFERENCES openings(fen) ON DELETE CASCADE,
    video_id     TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
    match_score  REAL NOT NULL DEFAULT 0,
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL,
    PRIMARY KEY (opening_fen, video_id)
);
CREATE INDEX IF NOT EXISTS idx_opening_videos_score ON opening_videos(match_score DESC);

-- Migration run reports (one row per completed or failed run)
CREATE TABLE IF NOT EXISTS migration_runs (
    run_id       TEXT PRIMARY KEY,
    stage        TEXT NOT NULL,
    migrated     INTEGER NOT NULL DEFAULT 0,
    skipped      INTEGER NOT NULL DEFAULT 0,
    errored      INTEGER NOT NULL DEFAULT 0,
    duration_ms  INTEGER NOT NULL DEFAULT 0,
    success      INTEGER NOT NULL DEFAULT 0,
    details      TEXT NOT NULL DEFAULT '{}',
    created_at   INTEGER NOT NULL
);
`

// InitSchema creates all tables and indexes if absent. Idempotent.
// A failure here (locked or corrupt store) is ErrStoreUnavailable.
func (s *Store) InitSchema() error {
	if _, err := s.DB.Exec(Schema); err != nil {
		return wrapUnavailable("init schema", err)
	}
	return nil
}
