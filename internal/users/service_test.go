package users

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tms-portal/internal/activity"
	"tms-portal/internal/auth"
	"tms-portal/internal/credstore"
	"tms-portal/internal/logging"
	"tms-portal/internal/models"
)

type memStore struct {
	recs     []auth.RawRecord
	fetchErr error
}

func (m *memStore) FetchAll(ctx context.Context) ([]auth.RawRecord, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return append([]auth.RawRecord(nil), m.recs...), nil
}

func (m *memStore) Exists(ctx context.Context, username string) (bool, error) {
	if m.fetchErr != nil {
		return false, m.fetchErr
	}
	for _, r := range m.recs {
		if r.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Add(ctx context.Context, rec auth.RawRecord) error {
	if ok, _ := m.Exists(ctx, rec.Username); ok {
		return credstore.ErrUserExists
	}
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memStore) Delete(ctx context.Context, username string) error {
	for i, r := range m.recs {
		if r.Username == username {
			m.recs = append(m.recs[:i], m.recs[i+1:]...)
			return nil
		}
	}
	return credstore.ErrUserNotFound
}

type memLog struct {
	entries []activity.Entry
	err     error
}

func (l *memLog) Record(ctx context.Context, actor, action string) error {
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, activity.Entry{Actor: actor, Action: action})
	return nil
}

func (l *memLog) Recent(ctx context.Context, n int) ([]activity.Entry, error) {
	return l.entries, nil
}

func newTestService(t *testing.T) (*Service, *memStore, *memLog) {
	t.Helper()
	h, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	store, log := &memStore{}, &memLog{}
	return NewService(store, h, log, logging.Discard()), store, log
}

func TestService_Create(t *testing.T) {
	svc, store, log := newTestService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, "gerald", NewUser{Username: " mary ", Name: "Mary", Password: "s3cret", Role: "user"})
	require.NoError(t, err)
	assert.Equal(t, User{Username: "mary", Name: "Mary", Role: models.RoleUser}, u)

	require.Len(t, store.recs, 1)
	rec := store.recs[0]
	assert.True(t, rec.IsHashed)
	assert.NotEqual(t, "s3cret", rec.Secret)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(rec.Secret), []byte("s3cret")))

	require.Len(t, log.entries, 1)
	assert.Equal(t, activity.Entry{Actor: "gerald", Action: "Added user: mary (user)"}, log.entries[0])

	_, err = svc.Create(ctx, "gerald", NewUser{Username: "mary", Name: "Mary", Password: "x", Role: "user"})
	assert.ErrorIs(t, err, credstore.ErrUserExists)
	assert.Len(t, log.entries, 1)
}

func TestService_CreateValidation(t *testing.T) {
	svc, store, _ := newTestService(t)

	cases := []NewUser{
		{Username: "", Name: "A", Password: "p", Role: "user"},
		{Username: "a", Name: "", Password: "p", Role: "user"},
		{Username: "a", Name: "A", Password: "", Role: "user"},
		{Username: "a", Name: "A", Password: "p", Role: ""},
		{Username: "a b", Name: "A", Password: "p", Role: "user"},
		{Username: "a/b", Name: "A", Password: "p", Role: "user"},
		{Username: "a", Name: "A", Password: "p", Role: "root"},
	}
	for _, nu := range cases {
		_, err := svc.Create(context.Background(), "gerald", nu)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", nu)
	}
	assert.Empty(t, store.recs)
}

func TestService_ListHidesSecrets(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.recs = []auth.RawRecord{
		{Username: "zed", Name: "Zed", Secret: "plain", Role: "user"},
		{Username: "amy", Name: "Amy", Secret: "plain", Role: "admin"},
		{Username: "", Secret: "orphan"},
	}

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []User{
		{Username: "amy", Name: "Amy", Role: models.RoleAdmin},
		{Username: "zed", Name: "Zed", Role: models.RoleUser},
	}, list)

	store.fetchErr = errors.New("sheet offline")
	_, err = svc.List(context.Background())
	assert.ErrorIs(t, err, auth.ErrSourceUnavailable)
}

func TestService_Delete(t *testing.T) {
	svc, store, log := newTestService(t)
	store.recs = []auth.RawRecord{{Username: "mary"}}

	require.NoError(t, svc.Delete(context.Background(), "gerald", "mary"))
	assert.Empty(t, store.recs)
	assert.Equal(t, "Deleted user: mary", log.entries[0].Action)

	assert.ErrorIs(t, svc.Delete(context.Background(), "gerald", "mary"), credstore.ErrUserNotFound)
}

func TestService_ActivityFailureDoesNotFailAction(t *testing.T) {
	svc, store, log := newTestService(t)
	log.err = errors.New("disk full")

	_, err := svc.Create(context.Background(), "gerald", NewUser{Username: "mary", Name: "Mary", Password: "p", Role: "user"})
	require.NoError(t, err)
	assert.Len(t, store.recs, 1)
}

func TestService_EnsureAdmin(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "", ""))
	assert.Empty(t, store.recs)

	require.NoError(t, svc.EnsureAdmin(ctx, "root", "bootstrap"))
	require.Len(t, store.recs, 1)
	assert.Equal(t, "admin", store.recs[0].Role)
	assert.True(t, store.recs[0].IsHashed)

	// повторный запуск ничего не меняет
	require.NoError(t, svc.EnsureAdmin(ctx, "root", "other"))
	assert.Len(t, store.recs, 1)
}

func TestService_EnsureAdminOnFreshFileStore(t *testing.T) {
	for _, backend := range []string{credstore.BackendSheet, credstore.BackendYAML} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			store, err := credstore.New(backend, filepath.Join(t.TempDir(), "missing", "users"), nil)
			require.NoError(t, err)

			h, err := auth.NewHasher(bcrypt.MinCost)
			require.NoError(t, err)
			svc := NewService(store, h, &memLog{}, logging.Discard())

			require.NoError(t, svc.EnsureAdmin(ctx, "root", "bootstrap"))
			require.NoError(t, svc.EnsureAdmin(ctx, "root", "bootstrap"))

			recs, err := store.FetchAll(ctx)
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, "root", recs[0].Username)

			ident, err := auth.NewResolver(store, h, logging.Discard()).Authenticate(ctx, "root", "bootstrap")
			require.NoError(t, err)
			assert.Equal(t, models.RoleAdmin, ident.Role)
		})
	}
}
