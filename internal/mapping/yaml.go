package mapping

import (
	"errors"
	"fmt"
	"os"

	"fjacquet/bwa-report/internal/fileutils"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parsererror"

	"gopkg.in/yaml.v3"
)

// ReadYAML reads a hand-edited mapping file:
//
//	accounts:
//	  "4000": Spenden
//	super_groups:
//	  Spenden: Einnahmen
func ReadYAML(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, &parsererror.NotFoundError{FilePath: path, Err: err}
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("error reading mapping file: %w", err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, &parsererror.InvalidFormatError{
			FilePath:       path,
			ExpectedFormat: "YAML with accounts and super_groups maps",
			Msg:            err.Error(),
		}
	}
	if snap.AccountMappings == nil {
		snap.AccountMappings = map[string]string{}
	}
	if snap.SuperGroupMappings == nil {
		snap.SuperGroupMappings = map[string]string{}
	}
	return snap, nil
}

// WriteYAML writes the table in the format read by ReadYAML.
func WriteYAML(path string, table *Table) error {
	data, err := yaml.Marshal(table.Export())
	if err != nil {
		return fmt.Errorf("error marshaling mappings: %w", err)
	}
	if err := fileutils.WriteFileAtomic(path, data, models.PermissionReportFile); err != nil {
		return fmt.Errorf("error writing mapping file: %w", err)
	}
	return nil
}
