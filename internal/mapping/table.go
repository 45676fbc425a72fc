// Package mapping holds the two-level classification of accounts: account id to
// category (BWA group) and category to super-group.
package mapping

import (
	"sort"
	"strings"

	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parsererror"
)

// Snapshot is the exported form of a Table, shared by the exchange document,
// the settings repository and the YAML mapping files.
type Snapshot struct {
	AccountMappings    map[string]string `json:"account_mappings" yaml:"accounts"`
	SuperGroupMappings map[string]string `json:"super_group_mappings" yaml:"super_groups"`
}

// Table maps accounts to categories and categories to super-groups.
//
// A Table is owned by one session at a time and is not safe for concurrent
// mutation; hand readers a Clone instead.
type Table struct {
	accounts    map[string]string
	superGroups map[string]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		accounts:    make(map[string]string),
		superGroups: make(map[string]string),
	}
}

// FromSnapshot builds a table from s, rejecting empty keys or values.
func FromSnapshot(s Snapshot) (*Table, error) {
	t := NewTable()
	if err := t.Import(s); err != nil {
		return nil, err
	}
	return t, nil
}

// SetAccountMapping assigns category to accountID, replacing any previous category.
func (t *Table) SetAccountMapping(accountID, category string) error {
	key, value, err := normalizePair("account id", accountID, "category", category)
	if err != nil {
		return err
	}
	t.accounts[key] = value
	return nil
}

// SetSuperGroupMapping assigns superGroup to category, replacing any previous super-group.
func (t *Table) SetSuperGroupMapping(category, superGroup string) error {
	key, value, err := normalizePair("category", category, "super-group", superGroup)
	if err != nil {
		return err
	}
	t.superGroups[key] = value
	return nil
}

// RemoveAccountMapping deletes the mapping of accountID and reports whether it existed.
func (t *Table) RemoveAccountMapping(accountID string) bool {
	key := strings.TrimSpace(accountID)
	_, ok := t.accounts[key]
	delete(t.accounts, key)
	return ok
}

// RemoveSuperGroupMapping deletes the super-group of category and reports whether it existed.
func (t *Table) RemoveSuperGroupMapping(category string) bool {
	key := strings.TrimSpace(category)
	_, ok := t.superGroups[key]
	delete(t.superGroups, key)
	return ok
}

// ResolveCategory returns the category of accountID or models.Unmapped.
func (t *Table) ResolveCategory(accountID string) string {
	if c, ok := t.accounts[strings.TrimSpace(accountID)]; ok {
		return c
	}
	return models.Unmapped
}

// ResolveSuperGroup returns the super-group of category or models.Unmapped.
func (t *Table) ResolveSuperGroup(category string) string {
	if g, ok := t.superGroups[strings.TrimSpace(category)]; ok {
		return g
	}
	return models.Unmapped
}

// Export copies both mapping sets.
func (t *Table) Export() Snapshot {
	return Snapshot{
		AccountMappings:    copyMap(t.accounts),
		SuperGroupMappings: copyMap(t.superGroups),
	}
}

// Import replaces both mapping sets with the content of s. The snapshot is
// validated completely before anything changes: on error the table is untouched.
func (t *Table) Import(s Snapshot) error {
	accounts, err := normalizeMap("account id", "category", s.AccountMappings)
	if err != nil {
		return err
	}
	superGroups, err := normalizeMap("category", "super-group", s.SuperGroupMappings)
	if err != nil {
		return err
	}
	t.accounts = accounts
	t.superGroups = superGroups
	return nil
}

// Merge applies every entry of s on top of the table; entries of s win. Like
// Import, nothing changes when s contains an invalid entry.
func (t *Table) Merge(s Snapshot) error {
	accounts, err := normalizeMap("account id", "category", s.AccountMappings)
	if err != nil {
		return err
	}
	superGroups, err := normalizeMap("category", "super-group", s.SuperGroupMappings)
	if err != nil {
		return err
	}
	for k, v := range accounts {
		t.accounts[k] = v
	}
	for k, v := range superGroups {
		t.superGroups[k] = v
	}
	return nil
}

// Clone returns an independent copy.
func (t *Table) Clone() *Table {
	return &Table{
		accounts:    copyMap(t.accounts),
		superGroups: copyMap(t.superGroups),
	}
}

// Equal reports whether both tables hold the same entries.
func (t *Table) Equal(other *Table) bool {
	if other == nil {
		return false
	}
	return mapsEqual(t.accounts, other.accounts) && mapsEqual(t.superGroups, other.superGroups)
}

// AccountCount returns the number of account mappings.
func (t *Table) AccountCount() int {
	return len(t.accounts)
}

// SuperGroupCount returns the number of super-group mappings.
func (t *Table) SuperGroupCount() int {
	return len(t.superGroups)
}

// Len returns the total number of entries.
func (t *Table) Len() int {
	return len(t.accounts) + len(t.superGroups)
}

// Accounts returns the mapped account ids sorted.
func (t *Table) Accounts() []string {
	return sortedKeys(t.accounts)
}

// Categories returns every category known to the table, whether it appears as
// an account target or as a super-group key, sorted.
func (t *Table) Categories() []string {
	seen := make(map[string]string, len(t.accounts)+len(t.superGroups))
	for _, c := range t.accounts {
		seen[c] = ""
	}
	for c := range t.superGroups {
		seen[c] = ""
	}
	return sortedKeys(seen)
}

// SuperGroups returns the distinct super-groups sorted.
func (t *Table) SuperGroups() []string {
	seen := make(map[string]string, len(t.superGroups))
	for _, g := range t.superGroups {
		seen[g] = ""
	}
	return sortedKeys(seen)
}

func normalizePair(keyName, key, valueName, value string) (string, string, error) {
	k := strings.TrimSpace(key)
	if k == "" {
		return "", "", &parsererror.ValidationError{Field: keyName, Value: key, Reason: "must not be empty"}
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return "", "", &parsererror.ValidationError{Field: valueName, Value: value, Reason: "must not be empty for " + k}
	}
	return k, v, nil
}

func normalizeMap(keyName, valueName string, in map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for key, value := range in {
		k, v, err := normalizePair(keyName, key, valueName, value)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
