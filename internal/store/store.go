// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/dopamind/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrProfileNotFound is returned when a profile id is unknown.
var ErrProfileNotFound = errors.New("profile not found")

// Store wraps SQLite access for profiles, play history and local key-value data.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Writes come from the UI goroutine and the sink goroutine.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			email TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			xp INTEGER NOT NULL DEFAULT 0,
			streak INTEGER NOT NULL DEFAULT 0,
			last_played TEXT,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS plays (
			id INTEGER PRIMARY KEY,
			profile_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			game_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			xp INTEGER NOT NULL,
			count INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			manual INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS favorites (
			profile_id TEXT NOT NULL,
			game_id TEXT NOT NULL,
			PRIMARY KEY (profile_id, game_id)
		);`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_plays_session ON plays(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_plays_profile_ended ON plays(profile_id, ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// EnsureProfile returns the stored profile for p.ID, creating it with zero-valued counters
// when it does not exist yet. Identity fields are refreshed when provided.
func (s *Store) EnsureProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	if strings.TrimSpace(p.ID) == "" {
		return model.Profile{}, fmt.Errorf("profile id must not be empty")
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, display_name, email, score, xp, streak, last_played, created_at)
		 VALUES (?, ?, ?, 0, 0, 0, NULL, ?)
		 ON CONFLICT(id) DO NOTHING`,
		p.ID, p.DisplayName, p.Email, created.Format(time.RFC3339Nano),
	); err != nil {
		return model.Profile{}, err
	}
	if p.DisplayName != "" || p.Email != "" {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE profiles SET
				display_name = CASE WHEN ? = '' THEN display_name ELSE ? END,
				email = CASE WHEN ? = '' THEN email ELSE ? END
			 WHERE id = ?`,
			p.DisplayName, p.DisplayName, p.Email, p.Email, p.ID,
		); err != nil {
			return model.Profile{}, err
		}
	}
	return s.GetProfile(ctx, p.ID)
}

// GetProfile returns a profile by id or ErrProfileNotFound.
func (s *Store) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, email, score, xp, streak, last_played, created_at
		 FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrProfileNotFound
	}
	return p, err
}

// ListProfiles returns all profiles ordered by creation time.
func (s *Store) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, display_name, email, score, xp, streak, last_played, created_at
		 FROM profiles ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// ApplyResult adds delta to the profile counters, advances the daily streak and records the
// play in one transaction. A play whose session id was already recorded is ignored.
func (s *Store) ApplyResult(ctx context.Context, profileID string, delta model.Delta, play model.PlayRecord) (model.Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Profile{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	row := tx.QueryRowContext(ctx,
		`SELECT id, display_name, email, score, xp, streak, last_played, created_at
		 FROM profiles WHERE id = ?`, profileID)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrProfileNotFound
		return model.Profile{}, err
	}
	if err != nil {
		return model.Profile{}, err
	}

	if play.SessionID != "" {
		var seen int
		err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM plays WHERE session_id = ?`, play.SessionID).Scan(&seen)
		if err != nil {
			return model.Profile{}, err
		}
		if seen > 0 {
			err = tx.Rollback()
			return profile, err
		}
	}

	ended := play.EndedAt
	if ended.IsZero() {
		ended = s.now()
	}
	started := play.StartedAt
	if started.IsZero() {
		started = ended
	}
	profile.Score += delta.Score
	profile.XP += delta.XP
	profile.Streak = model.NextStreak(profile.Streak, profile.LastPlayed, ended.Local())
	if profile.LastPlayed == nil || ended.After(*profile.LastPlayed) {
		last := ended
		profile.LastPlayed = &last
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE profiles SET score = ?, xp = ?, streak = ?, last_played = ? WHERE id = ?`,
		profile.Score, profile.XP, profile.Streak, profile.LastPlayed.Format(time.RFC3339Nano), profile.ID,
	); err != nil {
		return model.Profile{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO plays (profile_id, session_id, game_id, score, xp, count, elapsed_ms, manual, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profileID,
		play.SessionID,
		play.GameID,
		play.Score,
		play.XP,
		play.Count,
		play.ElapsedMs,
		boolToInt(play.Manual),
		started.Format(time.RFC3339Nano),
		ended.Format(time.RFC3339Nano),
	); err != nil {
		return model.Profile{}, err
	}

	if err = tx.Commit(); err != nil {
		return model.Profile{}, err
	}
	return profile, nil
}

// ListPlays returns plays matching filter ordered oldest first. Last keeps only the most
// recent n plays.
func (s *Store) ListPlays(ctx context.Context, filter model.PlayFilter) ([]model.PlayRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.ProfileID != "" {
		clauses = append(clauses, "profile_id = ?")
		args = append(args, filter.ProfileID)
	}
	if filter.GameID != "" {
		clauses = append(clauses, "game_id = ?")
		args = append(args, filter.GameID)
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.Format(time.RFC3339Nano))
	}
	limit := ""
	if filter.Last > 0 {
		limit = "LIMIT ?"
		args = append(args, filter.Last)
	}
	query := fmt.Sprintf(`SELECT id, profile_id, session_id, game_id, score, xp, count, elapsed_ms, manual, started_at, ended_at
		FROM plays
		WHERE %s
		ORDER BY ended_at DESC, id DESC
		%s`, strings.Join(clauses, " AND "), limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var plays []model.PlayRecord
	for rows.Next() {
		var rec model.PlayRecord
		var manual int
		var startedAt, endedAt string
		if err := rows.Scan(&rec.ID, &rec.ProfileID, &rec.SessionID, &rec.GameID, &rec.Score, &rec.XP, &rec.Count, &rec.ElapsedMs, &manual, &startedAt, &endedAt); err != nil {
			return nil, err
		}
		rec.Manual = manual != 0
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		plays = append(plays, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(plays)-1; i < j; i, j = i+1, j-1 {
		plays[i], plays[j] = plays[j], plays[i]
	}
	return plays, nil
}

// GameStats aggregates plays per game for a profile.
func (s *Store) GameStats(ctx context.Context, profileID string) ([]model.GameStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.game_id, COUNT(1), MAX(p.score), SUM(p.score),
			(SELECT l.score FROM plays l WHERE l.profile_id = p.profile_id AND l.game_id = p.game_id ORDER BY l.ended_at DESC, l.id DESC LIMIT 1),
			MAX(p.ended_at)
		 FROM plays p
		 WHERE p.profile_id = ?
		 GROUP BY p.game_id
		 ORDER BY COUNT(1) DESC, p.game_id ASC`, profileID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.GameStats
	for rows.Next() {
		var gs model.GameStats
		var lastAt string
		if err := rows.Scan(&gs.GameID, &gs.Plays, &gs.Best, &gs.Total, &gs.LastScore, &lastAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, lastAt)
		if err != nil {
			return nil, err
		}
		gs.LastAt = parsed
		result = append(result, gs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ToggleFavorite flips the favourite flag of a game and returns the new state.
func (s *Store) ToggleFavorite(ctx context.Context, profileID, gameID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE profile_id = ? AND game_id = ?`, profileID, gameID)
	if err != nil {
		return false, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if removed > 0 {
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO favorites (profile_id, game_id) VALUES (?, ?)`, profileID, gameID); err != nil {
		return false, err
	}
	return true, nil
}

// Favorites returns the favourite game ids of a profile.
func (s *Store) Favorites(ctx context.Context, profileID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT game_id FROM favorites WHERE profile_id = ?`, profileID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	result := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetKV returns the value stored under key.
func (s *Store) GetKV(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// PutKV stores value under key, replacing any previous value.
func (s *Store) PutKV(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().Format(time.RFC3339Nano))
	return err
}

// DeleteKV removes key. Missing keys are not an error.
func (s *Store) DeleteKV(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (model.Profile, error) {
	var p model.Profile
	var lastPlayed sql.NullString
	var createdAt string
	if err := row.Scan(&p.ID, &p.DisplayName, &p.Email, &p.Score, &p.XP, &p.Streak, &lastPlayed, &createdAt); err != nil {
		return model.Profile{}, err
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.Profile{}, err
	}
	p.CreatedAt = created
	if lastPlayed.Valid && lastPlayed.String != "" {
		parsed, err := time.Parse(time.RFC3339Nano, lastPlayed.String)
		if err != nil {
			return model.Profile{}, err
		}
		p.LastPlayed = &parsed
	}
	return p, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
