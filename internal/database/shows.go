package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"showdex/models"
)

// ErrNotFound is returned when a show is not in the catalog.
var ErrNotFound = errors.New("show not found")

// ShowRepository persists the scraped catalog: one row per show plus an
// optional serialized episode table.
type ShowRepository struct {
	db *DB
}

func NewShowRepository(db *DB) *ShowRepository {
	return &ShowRepository{db: db}
}

// UpsertShows writes catalog stubs in one transaction. Episode-derived
// columns (imdb, date_based, episode_count) are left alone so a catalog
// refresh never wipes previously extracted data.
func (r *ShowRepository) UpsertShows(ctx context.Context, stubs []models.ShowStub) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shows (id, name, slug, refreshed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			slug = excluded.slug,
			refreshed_at = excluded.refreshed_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, stub := range stubs {
		if _, err := stmt.ExecContext(ctx, stub.ID, stub.Name, stub.Slug, now); err != nil {
			return fmt.Errorf("upsert show %d: %w", stub.ID, err)
		}
	}
	return tx.Commit()
}

// ListShows returns catalog stubs ordered by name. A limit of 0 means all.
func (r *ShowRepository) ListShows(ctx context.Context, limit int) ([]models.ShowStub, error) {
	query := `SELECT id, name, slug FROM shows ORDER BY name COLLATE NOCASE`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shows: %w", err)
	}
	defer rows.Close()

	stubs := []models.ShowStub{}
	for rows.Next() {
		var stub models.ShowStub
		if err := rows.Scan(&stub.ID, &stub.Name, &stub.Slug); err != nil {
			return nil, fmt.Errorf("scan show: %w", err)
		}
		stubs = append(stubs, stub)
	}
	return stubs, rows.Err()
}

// CountShows returns the number of stored shows.
func (r *ShowRepository) CountShows(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count shows: %w", err)
	}
	return count, nil
}

// GetShow returns a single catalog stub.
func (r *ShowRepository) GetShow(ctx context.Context, id int) (models.ShowStub, error) {
	var stub models.ShowStub
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM shows WHERE id = ?`, id).
		Scan(&stub.ID, &stub.Name, &stub.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ShowStub{}, ErrNotFound
	}
	if err != nil {
		return models.ShowStub{}, fmt.Errorf("get show %d: %w", id, err)
	}
	return stub, nil
}

// SaveEpisodes persists an extracted show: episode-derived columns on the
// show row plus the serialized episode table. Name and slug are only
// written when the caller actually has them, so saving an extraction keyed
// by a bare id/slug pair cannot blank out catalog data.
func (r *ShowRepository) SaveEpisodes(ctx context.Context, show models.Show) error {
	listing, err := json.Marshal(show.Episodes)
	if err != nil {
		return fmt.Errorf("encode episodes: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shows (id, name, slug, imdb, date_based, episode_count, refreshed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE shows.name END,
			slug = CASE WHEN excluded.slug != '' THEN excluded.slug ELSE shows.slug END,
			imdb = excluded.imdb,
			date_based = excluded.date_based,
			episode_count = excluded.episode_count`,
		show.ID, show.Name, show.Slug, show.IMDB, show.DateBased, show.Episodes.Count(), now)
	if err != nil {
		return fmt.Errorf("upsert show %d: %w", show.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO show_episodes (show_id, listing, extracted_at)
		VALUES (?, ?, ?)
		ON CONFLICT (show_id) DO UPDATE SET
			listing = excluded.listing,
			extracted_at = excluded.extracted_at`,
		show.ID, string(listing), now)
	if err != nil {
		return fmt.Errorf("save episodes for show %d: %w", show.ID, err)
	}

	return tx.Commit()
}

// ClearEpisodes drops every stored listing and resets the episode-derived
// show columns, returning the catalog to stub-only state. Reports how many
// listings were dropped.
func (r *ShowRepository) ClearEpisodes(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM show_episodes`)
	if err != nil {
		return 0, fmt.Errorf("clear episodes: %w", err)
	}
	cleared, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE shows SET imdb = '', date_based = 0, episode_count = 0`)
	if err != nil {
		return 0, fmt.Errorf("reset show columns: %w", err)
	}
	return cleared, tx.Commit()
}

// GetEpisodes returns the stored show with its episode table. A show that
// was cataloged but never extracted comes back with an empty table.
func (r *ShowRepository) GetEpisodes(ctx context.Context, id int) (models.Show, error) {
	var (
		show    models.Show
		listing sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT s.id, s.name, s.slug, s.imdb, s.date_based, e.listing
		FROM shows s
		LEFT JOIN show_episodes e ON e.show_id = s.id
		WHERE s.id = ?`, id).
		Scan(&show.ID, &show.Name, &show.Slug, &show.IMDB, &show.DateBased, &listing)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Show{}, ErrNotFound
	}
	if err != nil {
		return models.Show{}, fmt.Errorf("get episodes for show %d: %w", id, err)
	}

	show.Episodes = models.EpisodeTable{}
	if listing.Valid && listing.String != "" {
		if err := json.Unmarshal([]byte(listing.String), &show.Episodes); err != nil {
			return models.Show{}, fmt.Errorf("decode episodes for show %d: %w", id, err)
		}
	}
	return show, nil
}
