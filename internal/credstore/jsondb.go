package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sdomino/scribble"

	"tms-portal/internal/auth"
)

const usersCollection = "users"

// JSONStore keeps one JSON document per user under <dir>/users.
type JSONStore struct {
	conn *scribble.Driver
}

type jsonUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
	// PasswordHash takes precedence over Password.
	PasswordHash string `json:"password_hash,omitempty"`
	IsHashed     bool   `json:"is_hashed"`
	Role         string `json:"role"`
}

func NewJSONStore(dir string) (*JSONStore, error) {
	conn, err := scribble.New(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot open json db %s: %w", dir, err)
	}
	return &JSONStore{conn: conn}, nil
}

func (o *JSONStore) FetchAll(ctx context.Context) ([]auth.RawRecord, error) {
	results, err := o.conn.ReadAll(usersCollection)
	if err != nil {
		// empty database, collection not created yet
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	recs := make([]auth.RawRecord, 0, len(results))
	for _, raw := range results {
		var u jsonUser
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, fmt.Errorf("cannot decode user json structure: %w", err)
		}
		rec := auth.RawRecord{Username: u.Username, Name: u.Name, Role: u.Role}
		if u.PasswordHash != "" {
			rec.Secret, rec.IsHashed = u.PasswordHash, true
		} else {
			rec.Secret, rec.IsHashed = u.Password, u.IsHashed
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (o *JSONStore) Exists(ctx context.Context, username string) (bool, error) {
	var u jsonUser
	err := o.conn.Read(usersCollection, username, &u)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (o *JSONStore) Add(ctx context.Context, rec auth.RawRecord) error {
	ok, err := o.Exists(ctx, rec.Username)
	if err != nil {
		return err
	}
	if ok {
		return ErrUserExists
	}
	u := jsonUser{
		Username: rec.Username,
		Name:     rec.Name,
		Role:     rec.Role,
		IsHashed: rec.IsHashed,
	}
	if rec.IsHashed {
		u.PasswordHash = rec.Secret
	} else {
		u.Password = rec.Secret
	}
	return o.conn.Write(usersCollection, rec.Username, u)
}

func (o *JSONStore) Delete(ctx context.Context, username string) error {
	ok, err := o.Exists(ctx, username)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return o.conn.Delete(usersCollection, username)
}
