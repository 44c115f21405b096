package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arb-arena/arbscan/internal/models"
)

const (
	filePermissions = os.FileMode(0o644)
	dirPermissions  = os.FileMode(0o755)
)

// FileStore persists the snapshot and seen keys as JSON files. Writes go to
// a temporary file first and are renamed into place, so readers never see a
// partial snapshot.
type FileStore struct {
	opportunitiesPath string
	seenKeysPath      string
}

// NewFileStore creates a FileStore rooted at dataDir.
func NewFileStore(dataDir, opportunitiesFile, seenKeysFile string) *FileStore {
	return &FileStore{
		opportunitiesPath: filepath.Join(dataDir, opportunitiesFile),
		seenKeysPath:      filepath.Join(dataDir, seenKeysFile),
	}
}

// SaveOpportunities replaces the opportunity snapshot.
func (s *FileStore) SaveOpportunities(set *models.OpportunitySet) error {
	return writeJSON(s.opportunitiesPath, set)
}

// LoadOpportunities reads back the last snapshot. An absent file yields an
// empty set, not an error.
func (s *FileStore) LoadOpportunities() (*models.OpportunitySet, error) {
	set := &models.OpportunitySet{Items: []models.Opportunity{}}
	if err := readJSON(s.opportunitiesPath, set); err != nil {
		return nil, err
	}
	return set, nil
}

// SaveSeenKeys replaces the persisted key list. Callers pass keys already
// sorted; the file format is a plain JSON string array.
func (s *FileStore) SaveSeenKeys(keys []string) error {
	if keys == nil {
		keys = []string{}
	}
	return writeJSON(s.seenKeysPath, keys)
}

// LoadSeenKeys reads the persisted key list; absent file means empty.
func (s *FileStore) LoadSeenKeys() ([]string, error) {
	var keys []string
	if err := readJSON(s.seenKeysPath, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error {
	return nil
}

func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tempPath := fmt.Sprintf("%s.%d.tmp", path, time.Now().UnixNano())
	if err := os.WriteFile(tempPath, data, filePermissions); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", filepath.Base(path), err)
	}
	return nil
}
