package credstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"tms-portal/internal/auth"
	"tms-portal/internal/fsx"
)

// Columns of the users sheet. The order matches the legacy sheet
// (username, name, password, role); is_hashed is appended at the end.
const (
	colUsername     = "username"
	colName         = "name"
	colPassword     = "password"
	colPasswordHash = "password_hash"
	colRole         = "role"
	colIsHashed     = "is_hashed"
)

var defaultSheetHeader = []string{colUsername, colName, colPassword, colRole, colIsHashed}

// SheetStore keeps users in a spreadsheet exported as CSV. The first row is
// the header; rows are read by column name, like a sheet's get_all_records.
type SheetStore struct {
	mu   sync.Mutex
	path string
}

func NewSheetStore(path string) *SheetStore {
	return &SheetStore{path: path}
}

type sheet struct {
	header []string
	rows   [][]string
}

func (s *sheet) col(name string) int {
	for i, h := range s.header {
		if h == name {
			return i
		}
	}
	return -1
}

func (s *sheet) get(row []string, name string) string {
	i := s.col(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (s *SheetStore) FetchAll(ctx context.Context) ([]auth.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.readLocked()
	if err != nil {
		return nil, err
	}

	recs := make([]auth.RawRecord, 0, len(sh.rows))
	for _, row := range sh.rows {
		rec := auth.RawRecord{
			Username: sh.get(row, colUsername),
			Name:     sh.get(row, colName),
			Role:     sh.get(row, colRole),
		}
		if hash := sh.get(row, colPasswordHash); hash != "" {
			rec.Secret, rec.IsHashed = hash, true
		} else {
			rec.Secret = sh.get(row, colPassword)
			rec.IsHashed, _ = strconv.ParseBool(sh.get(row, colIsHashed))
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *SheetStore) Exists(ctx context.Context, username string) (bool, error) {
	return exists(ctx, s, username)
}

func (s *SheetStore) Add(ctx context.Context, rec auth.RawRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.readLocked()
	if errors.Is(err, os.ErrNotExist) {
		sh, err = &sheet{header: append([]string(nil), defaultSheetHeader...)}, nil
	}
	if err != nil {
		return err
	}

	for _, row := range sh.rows {
		if sh.get(row, colUsername) == rec.Username {
			return ErrUserExists
		}
	}

	for _, c := range defaultSheetHeader {
		if sh.col(c) < 0 {
			sh.header = append(sh.header, c)
		}
	}

	row := make([]string, len(sh.header))
	row[sh.col(colUsername)] = rec.Username
	row[sh.col(colName)] = rec.Name
	row[sh.col(colRole)] = rec.Role
	if i := sh.col(colPasswordHash); i >= 0 && rec.IsHashed {
		row[i] = rec.Secret
	} else {
		row[sh.col(colPassword)] = rec.Secret
		row[sh.col(colIsHashed)] = strconv.FormatBool(rec.IsHashed)
	}
	sh.rows = append(sh.rows, row)

	return s.writeLocked(sh)
}

func (s *SheetStore) Delete(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.readLocked()
	if err != nil {
		return err
	}

	kept := sh.rows[:0]
	for _, row := range sh.rows {
		if sh.get(row, colUsername) != username {
			kept = append(kept, row)
		}
	}
	if len(kept) == len(sh.rows) {
		return ErrUserNotFound
	}
	sh.rows = kept

	return s.writeLocked(sh)
}

func (s *SheetStore) readLocked() (*sheet, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%s: missing header row", s.path)
	}

	sh := &sheet{rows: all[1:]}
	for _, h := range all[0] {
		sh.header = append(sh.header, strings.ToLower(strings.TrimSpace(h)))
	}
	if sh.col(colUsername) < 0 {
		return nil, fmt.Errorf("%s: no %q column", s.path, colUsername)
	}
	return sh, nil
}

func (s *SheetStore) writeLocked(sh *sheet) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(sh.header); err != nil {
		return err
	}
	for _, row := range sh.rows {
		for len(row) < len(sh.header) {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return fsx.WriteFileAtomic(s.path, buf.Bytes(), 0o600)
}
