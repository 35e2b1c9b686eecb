// Package credstore holds the interchangeable credential store backends.
// All of them return the same auth.RawRecord shape and report hashing
// through an explicit is_hashed flag that is set whenever the portal itself
// writes a user.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"

	"tms-portal/internal/auth"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

// Store is a credential store. Add expects rec.Secret to be hashed already
// and rec.IsHashed to be true.
type Store interface {
	auth.Source
	Exists(ctx context.Context, username string) (bool, error)
	Add(ctx context.Context, rec auth.RawRecord) error
	Delete(ctx context.Context, username string) error
}

const (
	BackendSheet    = "sheet"
	BackendYAML     = "yaml"
	BackendPostgres = "postgres"
	BackendJSONDB   = "jsondb"
)

// New opens the backend by name. db is only used by the postgres backend.
func New(backend, path string, db *gorm.DB) (Store, error) {
	switch backend {
	case BackendSheet:
		return NewSheetStore(path), nil
	case BackendYAML:
		return NewYAMLStore(path), nil
	case BackendJSONDB:
		return NewJSONStore(path)
	case BackendPostgres:
		if db == nil {
			return nil, errors.New("postgres credential backend needs a database connection")
		}
		return NewPostgresStore(db), nil
	}
	return nil, fmt.Errorf("unknown credential backend %q", backend)
}

// exists treats a missing file as an empty store, so the first Add on a
// fresh install is not blocked. FetchAll still reports the missing file.
func exists(ctx context.Context, s auth.Source, username string) (bool, error) {
	recs, err := s.FetchAll(ctx)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, r := range recs {
		if r.Username == username {
			return true, nil
		}
	}
	return false, nil
}
