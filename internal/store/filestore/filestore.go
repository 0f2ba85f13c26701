// Package filestore keeps attendance records in a local JSON or YAML file.
// The format is chosen by extension: .yaml/.yml for YAML, anything else JSON.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/username/attendance-tracker/internal/attendance"
)

// fileRecord is the on-disk shape. Times stay text so that a hand-edited
// bad value survives a load/save cycle untouched.
type fileRecord struct {
	ID       string  `json:"id" yaml:"id"`
	UserID   string  `json:"user_id" yaml:"user_id"`
	CheckIn  string  `json:"check_in" yaml:"check_in"`
	CheckOut *string `json:"check_out" yaml:"check_out"`
	Status   string  `json:"status" yaml:"status"`
	Notes    *string `json:"notes" yaml:"notes"`
}

type fileState struct {
	Records []fileRecord `json:"records" yaml:"records"`
}

// Store is a RecordStore on a single file.
// Every call re-reads the file, so edits made by hand are picked up.
type Store struct {
	path   string
	yaml   bool
	mu     sync.Mutex
	logger *zap.Logger
	newID  func() string
}

var _ attendance.RecordStore = (*Store)(nil)

// New creates a store on path. The file is created on first write.
func New(path string, logger *zap.Logger) *Store {
	ext := strings.ToLower(filepath.Ext(path))
	return &Store{
		path:   path,
		yaml:   ext == ".yaml" || ext == ".yml",
		logger: logger,
		newID:  func() string { return uuid.NewString() },
	}
}

// ListRange returns the owner's records with check-in in [from, to].
// Records whose check-in cannot be parsed are returned too, sorted last,
// so callers can report them.
func (s *Store) ListRange(ctx context.Context, ownerID string, from, to time.Time, order attendance.SortOrder) ([]attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return nil, err
	}

	var out []attendance.Record
	for _, fr := range state.Records {
		if fr.UserID != ownerID {
			continue
		}
		rec := fromFile(fr)
		if rec.CheckIn.Valid() && (rec.CheckIn.Before(from) || rec.CheckIn.After(to)) {
			continue
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CheckIn, out[j].CheckIn
		if a.Valid() != b.Valid() {
			return a.Valid()
		}
		if order == attendance.Descending {
			return a.After(b.Time)
		}
		return a.Before(b.Time)
	})

	return out, nil
}

// Create appends rec with a fresh UUID
func (s *Store) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return attendance.Record{}, err
	}

	rec.ID = s.newID()
	state.Records = append(state.Records, toFile(rec))

	if err := s.save(state); err != nil {
		return attendance.Record{}, err
	}

	s.logger.Info("Attendance record created",
		zap.String("id", rec.ID),
		zap.String("status", string(rec.Status)))

	return rec, nil
}

// Update replaces the record with rec.ID
func (s *Store) Update(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return attendance.Record{}, err
	}

	for i := range state.Records {
		if state.Records[i].ID != rec.ID || state.Records[i].UserID != rec.OwnerID {
			continue
		}
		state.Records[i] = toFile(rec)
		if err := s.save(state); err != nil {
			return attendance.Record{}, err
		}

		s.logger.Info("Attendance record updated",
			zap.String("id", rec.ID),
			zap.String("status", string(rec.Status)))

		return rec, nil
	}

	return attendance.Record{}, fmt.Errorf("record %s: %w", rec.ID, attendance.ErrRecordNotFound)
}

func (s *Store) load() (*fileState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileState{}, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	var state fileState
	if s.yaml {
		err = yaml.Unmarshal(data, &state)
	} else if len(strings.TrimSpace(string(data))) > 0 {
		err = json.Unmarshal(data, &state)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}

	return &state, nil
}

// save writes through a temp file and rename so a crash never leaves
// a half-written store behind
func (s *Store) save(state *fileState) error {
	var (
		data []byte
		err  error
	)
	if s.yaml {
		data, err = yaml.Marshal(state)
	} else {
		data, err = json.MarshalIndent(state, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	return nil
}

func toFile(rec attendance.Record) fileRecord {
	fr := fileRecord{
		ID:     rec.ID,
		UserID: rec.OwnerID,
		Status: string(rec.Status),
		Notes:  rec.Notes,
	}
	fr.CheckIn = timestampText(rec.CheckIn)
	if rec.CheckOut != nil {
		out := timestampText(*rec.CheckOut)
		fr.CheckOut = &out
	}
	return fr
}

func fromFile(fr fileRecord) attendance.Record {
	rec := attendance.Record{
		ID:      fr.ID,
		OwnerID: fr.UserID,
		CheckIn: attendance.ParseTimestamp(fr.CheckIn),
		Status:  attendance.Status(fr.Status),
		Notes:   fr.Notes,
	}
	if fr.CheckOut != nil {
		out := attendance.ParseTimestamp(*fr.CheckOut)
		rec.CheckOut = &out
	}
	return rec
}

func timestampText(ts attendance.Timestamp) string {
	if ts.Valid() {
		return ts.Format(time.RFC3339Nano)
	}
	return ts.Raw
}
