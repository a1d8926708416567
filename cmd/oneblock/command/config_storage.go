package command

import (
	"fmt"

	"github.com/katacr/go-oneblock/internal/audit"
	"github.com/katacr/go-oneblock/internal/persistence/sqlstore"
	"github.com/pixil98/go-errors"
)

type StorageConfig struct {
	Database string      `json:"database"`
	Audit    AuditConfig `json:"audit"`
}

type AuditConfig struct {
	Dir     string `json:"dir"`
	Enabled bool   `json:"enabled"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	if c.Database == "" {
		el.Add(fmt.Errorf("storage.database is required"))
	}
	if c.Audit.Enabled && c.Audit.Dir == "" {
		el.Add(fmt.Errorf("storage.audit.dir is required when the audit log is enabled"))
	}

	return el.Err()
}

func (c *StorageConfig) openDatabase() (*sqlstore.Store, error) {
	s, err := sqlstore.Open(c.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", c.Database, err)
	}
	return s, nil
}

// buildAuditWriter returns nil when no audit directory is configured.
func (c *StorageConfig) buildAuditWriter() *audit.Writer {
	if c.Audit.Dir == "" {
		return nil
	}
	return audit.NewWriter(c.Audit.Dir, audit.WithEnabled(c.Audit.Enabled))
}
