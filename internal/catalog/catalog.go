// Package catalog keeps the list of service names a shop has used, for
// autocomplete on order intake.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

const maxSuggestions = 8

var ErrNameRequired = errors.New("service name is required")

type Repository interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]string, error)
	Add(ctx context.Context, ownerID uuid.UUID, names ...string) error
	Delete(ctx context.Context, ownerID uuid.UUID, name string) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) List(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT name FROM service_catalog WHERE owner_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query service catalog: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("repository: failed to scan service name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating service catalog: %w", err)
	}
	return names, nil
}

func (r *postgresRepository) Add(ctx context.Context, ownerID uuid.UUID, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO service_catalog (owner_id, name)
		SELECT $1, unnest($2::text[])
		ON CONFLICT DO NOTHING
	`, ownerID, names)
	if err != nil {
		return fmt.Errorf("repository: failed to add service names: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, ownerID uuid.UUID, name string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM service_catalog WHERE owner_id = $1 AND name = $2`, ownerID, name)
	if err != nil {
		return fmt.Errorf("repository: failed to delete service name: %w", err)
	}
	return nil
}

type Service interface {
	List(ctx context.Context, sess session.Session) ([]string, error)
	Add(ctx context.Context, sess session.Session, name string) error
	Remember(ctx context.Context, sess session.Session, names []string)
	Delete(ctx context.Context, sess session.Session, name string) error
	Suggest(ctx context.Context, sess session.Session, query string) ([]string, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, sess session.Session) ([]string, error) {
	names, err := s.repo.List(ctx, sess.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list service names: %w", err)
	}
	return names, nil
}

func (s *service) Add(ctx context.Context, sess session.Session, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if err := s.repo.Add(ctx, sess.OwnerID, name); err != nil {
		return fmt.Errorf("service: failed to add service name: %w", err)
	}
	return nil
}

// Remember records the service names of a saved order. Failures are logged
// only; a missing suggestion never blocks an order.
func (s *service) Remember(ctx context.Context, sess session.Session, names []string) {
	clean := Normalize(names)
	if len(clean) == 0 {
		return
	}
	if err := s.repo.Add(ctx, sess.OwnerID, clean...); err != nil {
		log.Warn().Err(err).Stringer("owner_id", sess.OwnerID).Msg("service: failed to remember service names")
	}
}

func (s *service) Delete(ctx context.Context, sess session.Session, name string) error {
	if err := s.repo.Delete(ctx, sess.OwnerID, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("service: failed to delete service name: %w", err)
	}
	return nil
}

func (s *service) Suggest(ctx context.Context, sess session.Session, query string) ([]string, error) {
	names, err := s.List(ctx, sess)
	if err != nil {
		return nil, err
	}
	return Match(names, query, maxSuggestions), nil
}

// Match returns up to limit names containing query, case-insensitively.
// Names starting with query come first.
func Match(names []string, query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	var prefix, contains []string
	for _, n := range names {
		lower := strings.ToLower(n)
		switch {
		case strings.HasPrefix(lower, q):
			prefix = append(prefix, n)
		case strings.Contains(lower, q):
			contains = append(contains, n)
		}
	}
	out := append(prefix, contains...)
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// Normalize trims, drops empties and de-duplicates case-insensitively,
// keeping the first spelling.
func Normalize(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
