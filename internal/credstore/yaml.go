package credstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"tms-portal/internal/auth"
	"tms-portal/internal/fsx"
)

// YAMLStore keeps users in a config document laid out like
//
//	credentials:
//	  usernames:
//	    gerald:
//	      name: Gerald
//	      password: $2b$12$...
//	      is_hashed: true
//	      role: admin
//
// Keys the portal does not use (cookie settings, first_name,
// failed_login_attempts and the like) are preserved on write, at every level.
type YAMLStore struct {
	mu   sync.Mutex
	path string
}

func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

type yamlUser struct {
	Name         string         `yaml:"name,omitempty"`
	Email        string         `yaml:"email,omitempty"`
	Password     string         `yaml:"password,omitempty"`
	PasswordHash string         `yaml:"password_hash,omitempty"`
	IsHashed     bool           `yaml:"is_hashed,omitempty"`
	Role         string         `yaml:"role,omitempty"`
	Rest         map[string]any `yaml:",inline"`
}

type yamlDoc struct {
	Credentials struct {
		Usernames map[string]yamlUser `yaml:"usernames"`
		Rest      map[string]any      `yaml:",inline"`
	} `yaml:"credentials"`
	Rest map[string]any `yaml:",inline"`
}

func (s *YAMLStore) FetchAll(ctx context.Context) ([]auth.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(doc.Credentials.Usernames))
	for name := range doc.Credentials.Usernames {
		names = append(names, name)
	}
	sort.Strings(names)

	recs := make([]auth.RawRecord, 0, len(names))
	for _, name := range names {
		u := doc.Credentials.Usernames[name]
		rec := auth.RawRecord{Username: name, Name: u.Name, Role: u.Role}
		if u.PasswordHash != "" {
			rec.Secret, rec.IsHashed = u.PasswordHash, true
		} else {
			rec.Secret, rec.IsHashed = u.Password, u.IsHashed
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *YAMLStore) Exists(ctx context.Context, username string) (bool, error) {
	return exists(ctx, s, username)
}

func (s *YAMLStore) Add(ctx context.Context, rec auth.RawRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked()
	if errors.Is(err, os.ErrNotExist) {
		doc, err = &yamlDoc{}, nil
	}
	if err != nil {
		return err
	}
	if doc.Credentials.Usernames == nil {
		doc.Credentials.Usernames = map[string]yamlUser{}
	}
	if _, ok := doc.Credentials.Usernames[rec.Username]; ok {
		return ErrUserExists
	}

	doc.Credentials.Usernames[rec.Username] = yamlUser{
		Name:     rec.Name,
		Password: rec.Secret,
		IsHashed: rec.IsHashed,
		Role:     rec.Role,
	}
	return s.writeLocked(doc)
}

func (s *YAMLStore) Delete(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	if _, ok := doc.Credentials.Usernames[username]; !ok {
		return ErrUserNotFound
	}
	delete(doc.Credentials.Usernames, username)
	return s.writeLocked(doc)
}

func (s *YAMLStore) readLocked() (*yamlDoc, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var doc yamlDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return &doc, nil
}

func (s *YAMLStore) writeLocked(doc *yamlDoc) error {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(s.path, b, 0o600)
}
