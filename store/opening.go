package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// InsertOpening inserts an opening if no row with the same FEN exists.
// It returns false (and no error) when the FEN is already present —
// duplicates are a skipped outcome, not a failure.
func (s *Store) InsertOpening(ctx context.Context, o *Opening) (bool, error) {
	if o.CreatedAt == 0 {
		o.CreatedAt = time.Now().UnixMilli()
	}
	aliases, err := marshalAliases(o.Aliases)
	if err != nil {
		return false, fmt.Errorf("store: insert opening %s: %w", o.FEN, err)
	}

	res, err := execBusy(ctx, s.DB,
		`INSERT OR IGNORE INTO openings (fen, name, eco, aliases, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		o.FEN, o.Name, o.ECO, aliases, o.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("store: insert opening %s: %w", o.FEN, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: insert opening %s: %w", o.FEN, err)
	}
	return n > 0, nil
}

// GetOpening retrieves an opening by FEN. Returns nil, nil when absent.
func (s *Store) GetOpening(ctx context.Context, fen string) (*Opening, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT fen, name, eco, aliases, created_at FROM openings WHERE fen = ?`, fen)
	return scanOpening(row)
}

// AppendAlias adds an alternate name to an existing opening. It is the only
// permitted post-create mutation. Adding an alias that is already recorded
// is a no-op.
func (s *Store) AppendAlias(ctx context.Context, fen, alias string) error {
	o, err := s.GetOpening(ctx, fen)
	if err != nil {
		return err
	}
	if o == nil {
		return fmt.Errorf("store: append alias: opening %s not found", fen)
	}
	for _, a := range o.Aliases {
		if a == alias {
			return nil
		}
	}
	aliases, err := marshalAliases(append(o.Aliases, alias))
	if err != nil {
		return fmt.Errorf("store: append alias: %w", err)
	}
	_, err = execBusy(ctx, s.DB,
		`UPDATE openings SET aliases = ? WHERE fen = ?`, aliases, fen)
	if err != nil {
		return fmt.Errorf("store: append alias: %w", err)
	}
	return nil
}

// OpeningsByECO returns openings whose ECO code matches pattern.
// Pattern uses SQL LIKE syntax: "C50" matches exactly, "C5%" a range.
func (s *Store) OpeningsByECO(ctx context.Context, pattern string) ([]*Opening, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT fen, name, eco, aliases, created_at FROM openings
		WHERE eco LIKE ? ORDER BY eco, fen`, pattern)
	if err != nil {
		return nil, fmt.Errorf("store: openings by eco: %w", err)
	}
	defer rows.Close()
	return collectOpenings(rows)
}

// AllOpenings returns every opening, ordered by ECO then FEN.
func (s *Store) AllOpenings(ctx context.Context) ([]*Opening, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT fen, name, eco, aliases, created_at FROM openings ORDER BY eco, fen`)
	if err != nil {
		return nil, fmt.Errorf("store: all openings: %w", err)
	}
	defer rows.Close()
	return collectOpenings(rows)
}

// AllOpeningFENs returns the set of valid position keys currently stored.
func (s *Store) AllOpeningFENs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT fen FROM openings`)
	if err != nil {
		return nil, fmt.Errorf("store: opening fens: %w", err)
	}
	defer rows.Close()

	fens := make(map[string]bool)
	for rows.Next() {
		var fen string
		if err := rows.Scan(&fen); err != nil {
			return nil, fmt.Errorf("store: opening fens: %w", err)
		}
		fens[fen] = true
	}
	return fens, rows.Err()
}

// CountOpenings returns the total number of openings.
func (s *Store) CountOpenings(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM openings`).Scan(&n)
	return n, err
}

func collectOpenings(rows *sql.Rows) ([]*Opening, error) {
	var openings []*Opening
	for rows.Next() {
		o, err := scanOpeningRows(rows)
		if err != nil {
			return nil, err
		}
		openings = append(openings, o)
	}
	return openings, rows.Err()
}

func scanOpening(row *sql.Row) (*Opening, error) {
	var o Opening
	var aliases string
	err := row.Scan(&o.FEN, &o.Name, &o.ECO, &aliases, &o.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan opening: %w", err)
	}
	o.Aliases = unmarshalAliases(aliases)
	return &o, nil
}

func scanOpeningRows(rows *sql.Rows) (*Opening, error) {
	var o Opening
	var aliases string
	err := rows.Scan(&o.FEN, &o.Name, &o.ECO, &aliases, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan opening: %w", err)
	}
	o.Aliases = unmarshalAliases(aliases)
	return &o, nil
}

func marshalAliases(aliases []string) (string, error) {
	if len(aliases) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(aliases)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalAliases(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var aliases []string
	if err := json.Unmarshal([]byte(raw), &aliases); err != nil {
		return nil
	}
	return aliases
}
