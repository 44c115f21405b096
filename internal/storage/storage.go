// Package storage persists scan output: the opportunity snapshot and the
// seen-key set. Both are replaced wholesale on every write so a crash
// mid-run leaves the previous run's data intact. Two backends implement the
// same interface: flat JSON files with atomic replacement, and Postgres.
package storage

import (
	"fmt"

	"github.com/arb-arena/arbscan/internal/models"
)

// Store is the persistence collaborator for one scan run. Implementations
// must replace prior contents completely on each save and round-trip all
// opportunity attributes losslessly.
type Store interface {
	SaveOpportunities(set *models.OpportunitySet) error
	LoadOpportunities() (*models.OpportunitySet, error)
	SaveSeenKeys(keys []string) error
	LoadSeenKeys() ([]string, error)
	Close() error
}

// Open creates a Store for the configured driver.
func Open(driver, dataDir, opportunitiesFile, seenKeysFile, postgresDSN string) (Store, error) {
	switch driver {
	case "file":
		return NewFileStore(dataDir, opportunitiesFile, seenKeysFile), nil
	case "postgres":
		return OpenPostgres(postgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
