package mapping

import (
	"testing"

	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	table := NewTable()
	require.NoError(t, table.SetAccountMapping("4000", "Spenden"))
	require.NoError(t, table.SetAccountMapping("4100", "Beiträge"))
	require.NoError(t, table.SetAccountMapping("6000", "Miete"))
	require.NoError(t, table.SetSuperGroupMapping("Spenden", "Einnahmen"))
	require.NoError(t, table.SetSuperGroupMapping("Beiträge", "Einnahmen"))
	return table
}

func TestTable_Resolve(t *testing.T) {
	table := newTestTable(t)

	assert.Equal(t, "Spenden", table.ResolveCategory("4000"))
	assert.Equal(t, "Spenden", table.ResolveCategory(" 4000 "))
	assert.Equal(t, models.Unmapped, table.ResolveCategory("9999"))

	assert.Equal(t, "Einnahmen", table.ResolveSuperGroup("Spenden"))
	assert.Equal(t, models.Unmapped, table.ResolveSuperGroup("Miete"), "category without super-group")
	assert.Equal(t, models.Unmapped, table.ResolveSuperGroup(models.Unmapped))
}

func TestTable_LastWriteWins(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.SetAccountMapping("4000", "Spenden"))
	require.NoError(t, table.SetAccountMapping("4000", "Zuschüsse"))
	assert.Equal(t, "Zuschüsse", table.ResolveCategory("4000"))
	assert.Equal(t, 1, table.AccountCount())
}

func TestTable_RejectsEmptyValues(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*Table) error
	}{
		{"empty account", func(tb *Table) error { return tb.SetAccountMapping("  ", "Spenden") }},
		{"empty category", func(tb *Table) error { return tb.SetAccountMapping("4000", "") }},
		{"empty super-group key", func(tb *Table) error { return tb.SetSuperGroupMapping("", "Einnahmen") }},
		{"empty super-group", func(tb *Table) error { return tb.SetSuperGroupMapping("Spenden", " ") }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn(NewTable())
			assert.ErrorIs(t, err, parsererror.ErrInvalidArgument)
		})
	}
}

func TestTable_ExportIsACopy(t *testing.T) {
	table := newTestTable(t)
	snap := table.Export()
	snap.AccountMappings["4000"] = "Changed"
	assert.Equal(t, "Spenden", table.ResolveCategory("4000"))
}

func TestTable_ImportReplacesBoth(t *testing.T) {
	table := newTestTable(t)
	err := table.Import(Snapshot{
		AccountMappings:    map[string]string{"7000": "Verwaltung"},
		SuperGroupMappings: map[string]string{"Verwaltung": "Ausgaben"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.Unmapped, table.ResolveCategory("4000"))
	assert.Equal(t, "Verwaltung", table.ResolveCategory("7000"))
	assert.Equal(t, "Ausgaben", table.ResolveSuperGroup("Verwaltung"))
	assert.Equal(t, models.Unmapped, table.ResolveSuperGroup("Spenden"))
}

func TestTable_ImportIsAllOrNothing(t *testing.T) {
	table := newTestTable(t)
	before := table.Clone()

	err := table.Import(Snapshot{
		AccountMappings:    map[string]string{"7000": "Verwaltung"},
		SuperGroupMappings: map[string]string{"Verwaltung": ""},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, parsererror.ErrInvalidArgument)
	assert.True(t, table.Equal(before), "failed import leaves the table untouched")
}

func TestTable_ImportNilMapsClear(t *testing.T) {
	table := newTestTable(t)
	require.NoError(t, table.Import(Snapshot{}))
	assert.Equal(t, 0, table.Len())
}

func TestTable_Merge(t *testing.T) {
	table := newTestTable(t)
	err := table.Merge(Snapshot{
		AccountMappings:    map[string]string{"4000": "Großspenden", "7000": "Verwaltung"},
		SuperGroupMappings: map[string]string{"Miete": "Ausgaben"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Großspenden", table.ResolveCategory("4000"))
	assert.Equal(t, "Beiträge", table.ResolveCategory("4100"))
	assert.Equal(t, "Verwaltung", table.ResolveCategory("7000"))
	assert.Equal(t, "Ausgaben", table.ResolveSuperGroup("Miete"))

	before := table.Clone()
	err = table.Merge(Snapshot{AccountMappings: map[string]string{"": "x", "8000": "y"}})
	assert.Error(t, err)
	assert.True(t, table.Equal(before))
}

func TestTable_CloneIsIndependent(t *testing.T) {
	table := newTestTable(t)
	clone := table.Clone()
	require.NoError(t, table.SetAccountMapping("4000", "Anders"))
	assert.Equal(t, "Spenden", clone.ResolveCategory("4000"))
	assert.False(t, table.Equal(clone))
}

func TestTable_Remove(t *testing.T) {
	table := newTestTable(t)
	assert.True(t, table.RemoveAccountMapping("4000"))
	assert.False(t, table.RemoveAccountMapping("4000"))
	assert.True(t, table.RemoveSuperGroupMapping("Spenden"))
	assert.Equal(t, models.Unmapped, table.ResolveCategory("4000"))
	assert.Equal(t, models.Unmapped, table.ResolveSuperGroup("Spenden"))
}

func TestTable_Listings(t *testing.T) {
	table := newTestTable(t)
	require.NoError(t, table.SetSuperGroupMapping("Zinsen", "Einnahmen"))

	assert.Equal(t, []string{"4000", "4100", "6000"}, table.Accounts())
	assert.Equal(t, []string{"Beiträge", "Miete", "Spenden", "Zinsen"}, table.Categories())
	assert.Equal(t, []string{"Einnahmen"}, table.SuperGroups())
	assert.Equal(t, 3, table.AccountCount())
	assert.Equal(t, 3, table.SuperGroupCount())
	assert.Equal(t, 6, table.Len())
}

func TestFromSnapshot(t *testing.T) {
	table, err := FromSnapshot(Snapshot{AccountMappings: map[string]string{" 4000 ": " Spenden "}})
	require.NoError(t, err)
	assert.Equal(t, "Spenden", table.ResolveCategory("4000"))

	_, err = FromSnapshot(Snapshot{AccountMappings: map[string]string{"4000": ""}})
	assert.ErrorIs(t, err, parsererror.ErrInvalidArgument)
}
