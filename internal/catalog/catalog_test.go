package catalog_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/laundry-service/internal/catalog"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

type memoryRepository struct {
	names map[string]bool
}

func (m *memoryRepository) List(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	return catalog.Normalize(keys(m.names)), nil
}

func (m *memoryRepository) Add(ctx context.Context, ownerID uuid.UUID, names ...string) error {
	for _, n := range names {
		m.names[n] = true
	}
	return nil
}

func (m *memoryRepository) Delete(ctx context.Context, ownerID uuid.UUID, name string) error {
	delete(m.names, name)
	return nil
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestMatch(t *testing.T) {
	names := []string{"Cuci Kering", "Cuci Setrika", "Setrika Saja", "Bed Cover", "Karpet"}

	tests := []struct {
		query string
		limit int
		want  []string
	}{
		{"setrika", 8, []string{"Setrika Saja", "Cuci Setrika"}},
		{"CUCI", 8, []string{"Cuci Kering", "Cuci Setrika"}},
		{"", 2, []string{"Cuci Kering", "Cuci Setrika"}},
		{"sepatu", 8, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := catalog.Match(names, tt.query, tt.limit)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Match() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got := catalog.Normalize([]string{" Cuci Kering ", "cuci kering", "", "Karpet"})
	assert.Equal(t, []string{"Cuci Kering", "Karpet"}, got)
}

func TestService_RememberAndSuggest(t *testing.T) {
	repo := &memoryRepository{names: map[string]bool{}}
	svc := catalog.NewService(repo)
	sess := session.Session{OwnerID: uuid.Must(uuid.NewV4())}
	ctx := context.Background()

	assert.ErrorIs(t, svc.Add(ctx, sess, "  "), catalog.ErrNameRequired)

	svc.Remember(ctx, sess, []string{"Cuci Kering", " ", "Bed Cover"})
	require.NoError(t, svc.Add(ctx, sess, "Cuci Setrika"))

	got, err := svc.Suggest(ctx, sess, "cuci")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cuci Kering", "Cuci Setrika"}, got)
}
