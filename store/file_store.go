package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v3"

	"github.com/josephgoksu/CostWing/models"
)

const (
	defaultDataFile   = "results.json"
	dataFileKey       = "dataFile"
	dataFileFormatKey = "dataFileFormat"
	defaultDataFormat = "json"
	formatJSON        = "json"
	formatYAML        = "yaml"
	formatTOML        = "toml"
	checksumSuffix    = ".checksum"
)

// FileResultStore implements ResultStore on a single JSON, YAML or TOML file
// guarded by a file lock and a SHA-256 checksum sidecar.
type FileResultStore struct {
	filePath string
	format   string
	records  []models.Record
	flk      *flock.Flock
}

// NewFileResultStore creates an uninitialized store; call Initialize next.
func NewFileResultStore() *FileResultStore {
	return &FileResultStore{}
}

// Initialize reads 'dataFile' and 'dataFileFormat' from config, creates the
// parent directory and loads existing records.
func (s *FileResultStore) Initialize(config map[string]string) error {
	if val, ok := config[dataFileKey]; ok && val != "" {
		s.filePath = val
	} else {
		s.filePath = defaultDataFile
	}

	if val, ok := config[dataFileFormatKey]; ok && val != "" {
		switch f := strings.ToLower(val); f {
		case formatJSON, formatYAML, formatTOML:
			s.format = f
		default:
			return fmt.Errorf("unsupported dataFileFormat: %s. Supported formats are json, yaml, toml", val)
		}
	} else {
		s.format = defaultDataFormat
	}

	// Users providing a full path are responsible for its extension.
	if s.filePath == defaultDataFile && s.format != formatJSON {
		s.filePath = strings.TrimSuffix(s.filePath, filepath.Ext(s.filePath)) + "." + s.format
	}

	if dir := filepath.Dir(s.filePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	s.flk = flock.New(s.filePath + ".lock")
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("failed to acquire initial lock for %s: %w", s.filePath, err)
	}
	defer func() { _ = s.flk.Unlock() }()

	records, err := s.load()
	if err != nil {
		return err
	}
	s.records = records
	return nil
}

func calculateChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// load reads and verifies the data file. The caller must hold the lock.
func (s *FileResultStore) load() ([]models.Record, error) {
	checksumFilePath := s.filePath + checksumSuffix

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			_ = os.Remove(checksumFilePath)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read data file %s: %w", s.filePath, err)
	}

	expected, err := os.ReadFile(checksumFilePath)
	switch {
	case err == nil:
		if actual := calculateChecksum(data); actual != strings.TrimSpace(string(expected)) {
			return nil, fmt.Errorf("checksum mismatch for %s - expected %s, got %s - file is corrupt or tampered",
				s.filePath, strings.TrimSpace(string(expected)), actual)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("error checking checksum file %s: %w", checksumFilePath, err)
	}
	// A data file without a checksum is accepted; the next save writes one.

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var list models.RecordList
	switch s.format {
	case formatJSON:
		err = json.Unmarshal(data, &list)
	case formatYAML:
		err = yaml.Unmarshal(data, &list)
	case formatTOML:
		err = toml.Unmarshal(data, &list)
	default:
		return nil, fmt.Errorf("unsupported data format for loading: %s", s.format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s from %s: %w", strings.ToUpper(s.format), s.filePath, err)
	}
	return list.Records, nil
}

// write persists records through temp files and renames. The caller must
// hold the lock. On error the file on disk still holds the previous state.
func (s *FileResultStore) write(records []models.Record) error {
	list := models.RecordList{Records: records, TotalCount: len(records)}

	var (
		data []byte
		err  error
	)
	switch s.format {
	case formatJSON:
		data, err = json.MarshalIndent(list, "", "  ")
	case formatYAML:
		data, err = yaml.Marshal(list)
	case formatTOML:
		buf := new(bytes.Buffer)
		err = toml.NewEncoder(buf).Encode(list)
		data = buf.Bytes()
	default:
		return fmt.Errorf("unsupported data format for saving: %s", s.format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal records to %s: %w", s.format, err)
	}

	tempFilePath := s.filePath + ".tmp"
	checksumFilePath := s.filePath + checksumSuffix
	tempChecksumFilePath := checksumFilePath + ".tmp"
	defer func() { _ = os.Remove(tempFilePath) }()
	defer func() { _ = os.Remove(tempChecksumFilePath) }()

	if err := os.WriteFile(tempFilePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write to temporary data file %s: %w", tempFilePath, err)
	}
	if err := os.WriteFile(tempChecksumFilePath, []byte(calculateChecksum(data)), 0o644); err != nil {
		return fmt.Errorf("failed to write to temporary checksum file %s: %w", tempChecksumFilePath, err)
	}

	// Drop the old checksum first: a data file without checksum still loads,
	// a data file with a stale checksum does not.
	if err := os.Remove(checksumFilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove checksum file %s: %w", checksumFilePath, err)
	}
	if err := os.Rename(tempFilePath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temporary data file %s to %s: %w", tempFilePath, s.filePath, err)
	}
	if err := os.Rename(tempChecksumFilePath, checksumFilePath); err != nil {
		return fmt.Errorf("data file %s updated, but failed to write checksum file %s: %w", s.filePath, checksumFilePath, err)
	}
	return nil
}

// Save implements ResultStore.
func (s *FileResultStore) Save(rec models.Record) (models.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := models.ValidateStruct(rec); err != nil {
		return models.Record{}, fmt.Errorf("validation failed for record: %w", err)
	}

	if err := s.flk.Lock(); err != nil {
		return models.Record{}, fmt.Errorf("could not lock file for save: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	current, err := s.load()
	if err != nil {
		return models.Record{}, fmt.Errorf("failed to reload records before save: %w", err)
	}
	for _, r := range current {
		if r.ID == rec.ID {
			return models.Record{}, fmt.Errorf("record with ID '%s' already exists", rec.ID)
		}
	}

	next := append(append(make([]models.Record, 0, len(current)+1), current...), rec)
	if err := s.write(next); err != nil {
		return models.Record{}, fmt.Errorf("failed to save record: %w", err)
	}
	s.records = next
	return rec, nil
}

// reload refreshes the in-memory view from disk under the lock.
func (s *FileResultStore) reload() error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	records, err := s.load()
	if err != nil {
		return err
	}
	s.records = records
	return nil
}

// List implements ResultStore.
func (s *FileResultStore) List(projectID string) ([]models.Record, error) {
	if err := s.reload(); err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	var out []models.Record
	for _, r := range s.records {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	sortRecords(out)
	return out, nil
}

// Latest implements ResultStore.
func (s *FileResultStore) Latest(projectID string, kind models.RecordKind) (models.Record, error) {
	records, err := s.List(projectID)
	if err != nil {
		return models.Record{}, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if kind == "" || records[i].Kind == kind {
			return records[i], nil
		}
	}
	return models.Record{}, fmt.Errorf("project %s, kind %q: %w", projectID, kind, ErrNotFound)
}

// DeleteProject implements ResultStore.
func (s *FileResultStore) DeleteProject(projectID string) (int, error) {
	if err := s.flk.Lock(); err != nil {
		return 0, fmt.Errorf("could not lock file for delete: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	current, err := s.load()
	if err != nil {
		return 0, fmt.Errorf("failed to reload records before delete: %w", err)
	}
	kept := make([]models.Record, 0, len(current))
	for _, r := range current {
		if r.ProjectID != projectID {
			kept = append(kept, r)
		}
	}
	removed := len(current) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.write(kept); err != nil {
		return 0, fmt.Errorf("failed to save after delete: %w", err)
	}
	s.records = kept
	return removed, nil
}

// Close releases the file lock.
func (s *FileResultStore) Close() error {
	if s.flk == nil {
		return nil
	}
	if err := s.flk.Close(); err != nil {
		return fmt.Errorf("failed to release file lock for %s: %w", s.filePath, err)
	}
	return nil
}

// FilePath returns the data file in use.
func (s *FileResultStore) FilePath() string {
	return s.filePath
}

func sortRecords(records []models.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}
