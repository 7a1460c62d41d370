package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion records one applied migration of a stored record format
type SchemaVersion struct {
	Version     int       `json:"version"`
	Description string    `json:"description"`
	AppliedAt   time.Time `json:"applied_at"`
}

// MigrationFunc rewrites a record's raw JSON payload from one version to
// the next
type MigrationFunc func(ctx context.Context, data json.RawMessage) (json.RawMessage, error)

// Migration upgrades stored records between adjacent schema versions
type Migration struct {
	FromVersion int
	ToVersion   int
	Description string
	Up          MigrationFunc
}

// Evolution migrates versioned record payloads to the current schema.
// Stored profiles carry the schema version they were written with; readers
// run any registered migrations before unmarshaling.
type Evolution struct {
	currentVersion int
	migrations     []Migration
	history        []SchemaVersion
}

// NewEvolution creates an evolution manager at the given current version
func NewEvolution(currentVersion int) *Evolution {
	return &Evolution{
		currentVersion: currentVersion,
		migrations:     []Migration{},
		history:        []SchemaVersion{},
	}
}

// Register registers a new migration
func (e *Evolution) Register(migration Migration) error {
	if migration.FromVersion+1 != migration.ToVersion {
		return fmt.Errorf("migrations must step one version: %d -> %d", migration.FromVersion, migration.ToVersion)
	}
	if migration.Up == nil {
		return fmt.Errorf("migration %d -> %d has no Up function", migration.FromVersion, migration.ToVersion)
	}

	for _, existing := range e.migrations {
		if existing.FromVersion == migration.FromVersion {
			return fmt.Errorf("migration from version %d already exists", migration.FromVersion)
		}
	}

	e.migrations = append(e.migrations, migration)
	return nil
}

// CurrentVersion returns the schema version new records are written with
func (e *Evolution) CurrentVersion() int {
	return e.currentVersion
}

// History returns the migrations applied by this manager
func (e *Evolution) History() []SchemaVersion {
	return append([]SchemaVersion{}, e.history...)
}

// MigrateToCurrent upgrades a raw payload from its stored version to the
// current version, applying each registered migration in order
func (e *Evolution) MigrateToCurrent(ctx context.Context, data json.RawMessage, storedVersion int) (json.RawMessage, error) {
	if storedVersion == e.currentVersion {
		return data, nil
	}
	if storedVersion > e.currentVersion {
		return nil, fmt.Errorf("stored version %d is newer than current version %d", storedVersion, e.currentVersion)
	}

	for version := storedVersion; version < e.currentVersion; version++ {
		migration := e.findMigration(version)
		if migration == nil {
			return nil, fmt.Errorf("no migration found from version %d to %d", version, version+1)
		}

		migrated, err := migration.Up(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("migration %d->%d failed: %w", migration.FromVersion, migration.ToVersion, err)
		}
		data = migrated

		e.history = append(e.history, SchemaVersion{
			Version:     migration.ToVersion,
			Description: migration.Description,
			AppliedAt:   time.Now(),
		})
	}

	return data, nil
}

func (e *Evolution) findMigration(from int) *Migration {
	for i := range e.migrations {
		if e.migrations[i].FromVersion == from {
			return &e.migrations[i]
		}
	}
	return nil
}

// versionedRecord wraps a payload with the schema version it was written with
type versionedRecord struct {
	SchemaVersion int             `json:"_schema_version"`
	Data          json.RawMessage `json:"data"`
}

// MarshalVersioned marshals data with schema version information
func MarshalVersioned(data interface{}, schemaVersion int) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(versionedRecord{
		SchemaVersion: schemaVersion,
		Data:          raw,
	})
}

// UnmarshalVersioned splits a stored record into its payload and the schema
// version it was written with. Records written before versioning was
// introduced are reported as version 1.
func UnmarshalVersioned(data []byte) (json.RawMessage, int, error) {
	var wrapper versionedRecord
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, 0, err
	}
	if wrapper.SchemaVersion == 0 {
		return data, 1, nil
	}
	return wrapper.Data, wrapper.SchemaVersion, nil
}
