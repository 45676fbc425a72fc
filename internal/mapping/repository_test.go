package mapping

import (
	"context"
	"testing"

	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_LoadEmpty(t *testing.T) {
	repo := NewRepository(store.NewMemoryStore(), logging.NewMockLogger())
	table, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	repo := NewRepository(s, logging.NewMockLogger())

	require.NoError(t, repo.Save(ctx, newTestTable(t)))
	values := s.Values()
	assert.JSONEq(t, `{"4000":"Spenden","4100":"Beiträge","6000":"Miete"}`, values[KeyAccounts])
	assert.JSONEq(t, `{"Spenden":"Einnahmen","Beiträge":"Einnahmen"}`, values[KeySuperGroups])

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Equal(newTestTable(t)))
}

func TestRepository_SaveRestoresOnFailure(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	repo := NewRepository(s, logging.NewMockLogger())
	require.NoError(t, repo.Save(ctx, newTestTable(t)))
	before := s.Values()

	s.FailSetKey = KeySuperGroups
	other := NewTable()
	require.NoError(t, other.SetAccountMapping("1", "X"))
	require.Error(t, repo.Save(ctx, other))

	assert.Equal(t, before, s.Values(), "no half-written mapping table")
}

func TestRepository_FirstSaveRestoresOnFailure(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	s.FailSetKey = KeySuperGroups
	repo := NewRepository(s, logging.NewMockLogger())

	table := NewTable()
	require.NoError(t, table.SetAccountMapping("4000", "Spenden"))
	require.NoError(t, table.SetSuperGroupMapping("Spenden", "Einnahmen"))
	require.Error(t, repo.Save(ctx, table))

	raw, err := s.Get(ctx, KeyAccounts, "")
	require.NoError(t, err)
	assert.Empty(t, raw)

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestRepository_LoadCorrupt(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, KeyAccounts, "not json"))

	_, err := NewRepository(s, nil).Load(ctx)
	assert.Error(t, err)
}

func TestRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemoryStore(), nil)

	table, err := repo.Update(ctx, func(tb *Table) error {
		return tb.SetAccountMapping("4000", "Spenden")
	})
	require.NoError(t, err)
	assert.Equal(t, "Spenden", table.ResolveCategory("4000"))

	_, err = repo.Update(ctx, func(tb *Table) error {
		require.NoError(t, tb.SetAccountMapping("5000", "Sonstiges"))
		return tb.SetAccountMapping("", "x")
	})
	require.Error(t, err)

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.AccountCount(), "failed update is not saved")
}
