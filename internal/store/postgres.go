package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/scythe504/speedboard/internal"
)

const settingsDocID = "global"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS settings (
		id         TEXT PRIMARY KEY,
		doc        JSONB NOT NULL DEFAULT '{}'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS game_ranking (
		game_id    TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		nickname   TEXT,
		score      INTEGER NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (game_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS game_ranking_score_idx ON game_ranking (game_id, score DESC)`,
}

type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and makes sure the schema exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	pg := &Postgres{pool: pool}
	if err := pg.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := pg.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().Str("module", "store.postgres").Msg("connected")
	return pg, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (p *Postgres) Read(ctx context.Context) (internal.Settings, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx, `SELECT doc FROM settings WHERE id = $1`, settingsDocID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return internal.Settings{}, nil
	}
	if err != nil {
		return internal.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return decodeSettings(doc)
}

func (p *Postgres) Write(ctx context.Context, patch internal.Settings) (internal.Settings, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return internal.Settings{}, fmt.Errorf("encode settings: %w", err)
	}

	var doc []byte
	err = p.pool.QueryRow(ctx, `
		INSERT INTO settings (id, doc, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (id) DO UPDATE
		SET doc = settings.doc || EXCLUDED.doc, updated_at = now()
		RETURNING doc`, settingsDocID, string(body)).Scan(&doc)
	if err != nil {
		return internal.Settings{}, fmt.Errorf("write settings: %w", err)
	}
	return decodeSettings(doc)
}

func decodeSettings(doc []byte) (internal.Settings, error) {
	var s internal.Settings
	if err := json.Unmarshal(doc, &s); err != nil {
		return internal.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func (p *Postgres) UpsertSessionScore(ctx context.Context, sessionID, userID, displayName string, score int) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO game_ranking (game_id, user_id, nickname, score, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, now())
		ON CONFLICT (game_id, user_id) DO UPDATE
		SET score = GREATEST(game_ranking.score, EXCLUDED.score),
		    nickname = EXCLUDED.nickname,
		    updated_at = now()`, sessionID, userID, displayName, score)
	if err != nil {
		return fmt.Errorf("upsert score %s/%s: %w", sessionID, userID, err)
	}
	return nil
}

func (p *Postgres) SessionRanking(ctx context.Context, sessionID string, page, limit int) ([]ScoreRecord, error) {
	offset, limit := pageBounds(page, limit)

	rows, err := p.pool.Query(ctx, `
		SELECT game_id, user_id, COALESCE(nickname, ''), score, updated_at
		FROM game_ranking
		WHERE game_id = $1
		ORDER BY score DESC, user_id
		LIMIT $2 OFFSET $3`, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query ranking %s: %w", sessionID, err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ScoreRecord, error) {
		var r ScoreRecord
		err := row.Scan(&r.SessionID, &r.UserID, &r.Nickname, &r.Score, &r.UpdatedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan ranking %s: %w", sessionID, err)
	}
	return records, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
