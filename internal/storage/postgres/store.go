package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"teambot/internal/config"
	"teambot/internal/domain"
	"teambot/internal/storage"
	"teambot/internal/storage/postgres/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ storage.Repository = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	store := &Store{pool: pool}
	if err := store.applyMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) applyMigrations(ctx context.Context) error {
	entries, err := migrations.Files.ReadDir(".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		sqlBytes, err := fs.ReadFile(migrations.Files, entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := s.pool.Exec(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (s *Store) CreateRequest(ctx context.Context, req domain.TeamRequest) (domain.TeamRequest, error) {
	status := req.Status
	if status == "" {
		status = domain.StatusPending
	}

	// A plain INSERT so the primary key rejects duplicates atomically;
	// a read-then-write here would race two creators picking the same name.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO team_requests (name, creator_id, status)
		VALUES ($1, $2, $3)
	`, req.Name, req.CreatorID, string(status))
	if err != nil {
		return domain.TeamRequest{}, translateError(err)
	}

	return s.GetRequest(ctx, req.Name)
}

func (s *Store) GetRequest(ctx context.Context, name string) (domain.TeamRequest, error) {
	var req domain.TeamRequest
	var status string
	err := s.pool.QueryRow(ctx, `
		SELECT name, creator_id, status, created_at, updated_at
		FROM team_requests
		WHERE name = $1
	`, name).Scan(&req.Name, &req.CreatorID, &status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TeamRequest{}, domain.ErrRequestNotFound
		}
		return domain.TeamRequest{}, err
	}
	req.Status = domain.RequestStatus(status)
	return req, nil
}

func (s *Store) TransitionStatus(ctx context.Context, name string, from, to domain.RequestStatus) (bool, error) {
	commandTag, err := s.pool.Exec(ctx, `
		UPDATE team_requests
		SET status = $3,
		    updated_at = NOW()
		WHERE name = $1 AND status = $2
	`, name, string(from), string(to))
	if err != nil {
		return false, err
	}
	return commandTag.RowsAffected() == 1, nil
}

func (s *Store) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.TeamRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, creator_id, status, created_at, updated_at
		FROM team_requests
		WHERE status = $1
		ORDER BY name
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TeamRequest
	for rows.Next() {
		var req domain.TeamRequest
		var st string
		if err := rows.Scan(&req.Name, &req.CreatorID, &st, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		req.Status = domain.RequestStatus(st)
		result = append(result, req)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return result, nil
}

func (s *Store) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "team_requests_pkey" {
			return domain.ErrDuplicateName
		}
	}
	return err
}
