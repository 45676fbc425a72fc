package mapping

import (
	"context"
	"encoding/json"
	"fmt"

	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/store"
)

// Settings keys holding the persisted mapping sets as JSON objects.
const (
	KeyAccounts    = "mapping.accounts"
	KeySuperGroups = "mapping.super_groups"
)

// Repository persists a Table in a settings store.
type Repository struct {
	store  store.SettingsStore
	logger logging.Logger
}

// NewRepository creates a repository over s.
func NewRepository(s store.SettingsStore, logger logging.Logger) *Repository {
	return &Repository{store: s, logger: logging.OrDefault(logger)}
}

// Load reads the persisted table. Missing keys yield an empty table.
func (r *Repository) Load(ctx context.Context) (*Table, error) {
	accounts, err := r.readMap(ctx, KeyAccounts)
	if err != nil {
		return nil, err
	}
	superGroups, err := r.readMap(ctx, KeySuperGroups)
	if err != nil {
		return nil, err
	}

	table, err := FromSnapshot(Snapshot{AccountMappings: accounts, SuperGroupMappings: superGroups})
	if err != nil {
		return nil, fmt.Errorf("persisted mappings are invalid: %w", err)
	}

	r.logger.Debug("Loaded mapping table",
		logging.Field{Key: "accounts", Value: table.AccountCount()},
		logging.Field{Key: "super_groups", Value: table.SuperGroupCount()})
	return table, nil
}

// Save writes both mapping sets. When the second write fails the first key is
// restored to its previous value, which is empty on a first save.
func (r *Repository) Save(ctx context.Context, table *Table) error {
	snap := table.Export()
	accounts, err := json.Marshal(snap.AccountMappings)
	if err != nil {
		return fmt.Errorf("error marshaling account mappings: %w", err)
	}
	superGroups, err := json.Marshal(snap.SuperGroupMappings)
	if err != nil {
		return fmt.Errorf("error marshaling super-group mappings: %w", err)
	}

	previous, err := r.store.Get(ctx, KeyAccounts, "")
	if err != nil {
		return fmt.Errorf("error reading %s: %w", KeyAccounts, err)
	}
	if err := r.store.Set(ctx, KeyAccounts, string(accounts)); err != nil {
		return fmt.Errorf("error saving %s: %w", KeyAccounts, err)
	}
	if err := r.store.Set(ctx, KeySuperGroups, string(superGroups)); err != nil {
		// An empty previous value reads back as an empty map.
		if rbErr := r.store.Set(ctx, KeyAccounts, previous); rbErr != nil {
			r.logger.WithError(rbErr).Error("Failed to restore account mappings",
				logging.Field{Key: "key", Value: KeyAccounts})
		}
		return fmt.Errorf("error saving %s: %w", KeySuperGroups, err)
	}

	r.logger.Info("Saved mapping table",
		logging.Field{Key: "accounts", Value: table.AccountCount()},
		logging.Field{Key: "super_groups", Value: table.SuperGroupCount()})
	return nil
}

// Update loads the table, applies fn and saves the result. Nothing is saved
// when fn fails.
func (r *Repository) Update(ctx context.Context, fn func(*Table) error) (*Table, error) {
	table, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(table); err != nil {
		return nil, err
	}
	if err := r.Save(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

func (r *Repository) readMap(ctx context.Context, key string) (map[string]string, error) {
	raw, err := r.store.Get(ctx, key, "")
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", key, err)
	}
	m := map[string]string{}
	if raw == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", key, err)
	}
	return m, nil
}
