package credstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"tms-portal/internal/auth"
)

const testHash = "$2a$04$ZVqgC0G5UOwETGbR2mlYz.XBaTDh3nx.pVvQvVCh1IBaXiUXKAT1a"

// Общие сценарии для всех файловых бэкендов.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	recs, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)

	require.NoError(t, s.Add(ctx, auth.RawRecord{Username: "gerald", Name: "Gerald", Secret: testHash, IsHashed: true, Role: "admin"}))
	require.NoError(t, s.Add(ctx, auth.RawRecord{Username: "mary", Name: "Mary", Secret: testHash, IsHashed: true, Role: "user"}))

	err = s.Add(ctx, auth.RawRecord{Username: "mary", Secret: testHash, IsHashed: true})
	assert.ErrorIs(t, err, ErrUserExists)

	ok, err := s.Exists(ctx, "gerald")
	require.NoError(t, err)
	assert.True(t, ok)

	recs, err = s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	byName := map[string]auth.RawRecord{}
	for _, r := range recs {
		byName[r.Username] = r
	}
	assert.Equal(t, auth.RawRecord{Username: "gerald", Name: "Gerald", Secret: testHash, IsHashed: true, Role: "admin"}, byName["gerald"])
	assert.Equal(t, "user", byName["mary"].Role)

	require.NoError(t, s.Delete(ctx, "gerald"))
	assert.ErrorIs(t, s.Delete(ctx, "gerald"), ErrUserNotFound)

	ok, err = s.Exists(ctx, "gerald")
	require.NoError(t, err)
	assert.False(t, ok)

	recs, err = s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "mary", recs[0].Username)
}

func TestSheetStore_Contract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, []byte("username,name,password,role,is_hashed\n"), 0o600))

	runStoreContract(t, NewSheetStore(path))
}

func TestSheetStore_LegacyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	sheet := "Username,Name,Password,Role\n" +
		"gerald,Gerald,Gerald!2025,admin\n" +
		"mary,,,user\n" +
		"short\n"
	require.NoError(t, os.WriteFile(path, []byte(sheet), 0o600))

	s := NewSheetStore(path)
	recs, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, auth.RawRecord{Username: "gerald", Name: "Gerald", Secret: "Gerald!2025", Role: "admin"}, recs[0])
	assert.Equal(t, auth.RawRecord{Username: "mary", Role: "user"}, recs[1])
	assert.Equal(t, auth.RawRecord{Username: "short"}, recs[2])

	// новая строка дописывает недостающую колонку is_hashed
	require.NoError(t, s.Add(context.Background(), auth.RawRecord{Username: "new", Secret: testHash, IsHashed: true, Role: "user"}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "username,name,password,role,is_hashed\n")
	assert.Contains(t, string(b), "new,,"+testHash+",user,true\n")
}

func TestSheetStore_PasswordHashColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, []byte("username,password_hash,role\ngerald,"+testHash+",admin\n"), 0o600))

	recs, err := NewSheetStore(path).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].IsHashed)
	assert.Equal(t, testHash, recs[0].Secret)
}

func TestSheetStore_Unavailable(t *testing.T) {
	dir := t.TempDir()

	_, err := NewSheetStore(filepath.Join(dir, "missing.csv")).FetchAll(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	noHeader := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(noHeader, nil, 0o600))
	_, err = NewSheetStore(noHeader).FetchAll(context.Background())
	assert.Error(t, err)

	noUsername := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(noUsername, []byte("login,password\na,b\n"), 0o600))
	_, err = NewSheetStore(noUsername).FetchAll(context.Background())
	assert.Error(t, err)
}

func TestYAMLStore_Contract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("credentials:\n  usernames: {}\n"), 0o600))

	runStoreContract(t, NewYAMLStore(path))
}

func TestYAMLStore_ReadsDocumentAndKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `cookie:
  name: tms_cookie
  expiry_days: 30
credentials:
  usernames:
    gerald:
      name: Gerald
      password_hash: ` + testHash + `
      role: admin
    mary:
      name: Mary
      password: plain
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	s := NewYAMLStore(path)

	recs, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, auth.RawRecord{Username: "gerald", Name: "Gerald", Secret: testHash, IsHashed: true, Role: "admin"}, recs[0])
	assert.Equal(t, auth.RawRecord{Username: "mary", Name: "Mary", Secret: "plain"}, recs[1])

	require.NoError(t, s.Delete(context.Background(), "mary"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "tms_cookie")
	assert.Contains(t, string(b), "expiry_days: 30")
	assert.NotContains(t, string(b), "mary")
}

func TestYAMLStore_WriteKeepsUnknownUserKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `credentials:
  usernames:
    gerald:
      name: Gerald
      email: gerald@thermoteq.example
      first_name: Gerald
      failed_login_attempts: 0
      password_hash: ` + testHash + `
      role: admin
  preauthorized:
    emails:
      - boss@thermoteq.example
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	s := NewYAMLStore(path)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, auth.RawRecord{Username: "mary", Name: "Mary", Secret: testHash, IsHashed: true, Role: "user"}))
	require.NoError(t, s.Delete(ctx, "mary"))

	var got map[string]any
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(b, &got))

	creds := got["credentials"].(map[string]any)
	assert.Contains(t, creds, "preauthorized")
	gerald := creds["usernames"].(map[string]any)["gerald"].(map[string]any)
	assert.Equal(t, "Gerald", gerald["first_name"])
	assert.Equal(t, 0, gerald["failed_login_attempts"])
	assert.Equal(t, "gerald@thermoteq.example", gerald["email"])
	assert.Equal(t, testHash, gerald["password_hash"])

	recs, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, auth.RawRecord{Username: "gerald", Name: "Gerald", Secret: testHash, IsHashed: true, Role: "admin"}, recs[0])
}

func TestYAMLStore_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("credentials: [oops"), 0o600))

	_, err := NewYAMLStore(path).FetchAll(context.Background())
	assert.Error(t, err)
}

func TestJSONStore_Contract(t *testing.T) {
	s, err := NewJSONStore(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)

	runStoreContract(t, s)
}

func TestJSONStore_PlainPassword(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	s, err := NewJSONStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, usersCollection), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, usersCollection, "admin.json"),
		[]byte(`{"username":"admin","password":"admin","role":"admin"}`),
		0o600,
	))

	recs, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, auth.RawRecord{Username: "admin", Secret: "admin", Role: "admin"}, recs[0])
}

func TestNew_Backends(t *testing.T) {
	dir := t.TempDir()

	for _, b := range []string{BackendSheet, BackendYAML, BackendJSONDB} {
		s, err := New(b, filepath.Join(dir, b), nil)
		require.NoError(t, err, b)
		assert.NotNil(t, s)
	}

	_, err := New(BackendPostgres, "", nil)
	assert.Error(t, err)

	_, err = New("gsheets", "", nil)
	assert.Error(t, err)
}
