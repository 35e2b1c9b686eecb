package activity

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDBLogWithMock(t *testing.T) (*DBLog, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	return NewDBLog(db), mock
}

func TestDBLog_Record(t *testing.T) {
	l, mock := newDBLogWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, l.Record(context.Background(), "gerald", "Deleted user: mary"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBLog_Recent(t *testing.T) {
	l, mock := newDBLogWithMock(t)
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(`SELECT \* FROM "audit_logs" ORDER BY created_at desc LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "actor", "action"}).
			AddRow(2, now, "gerald", "Deleted user: mary").
			AddRow(1, now.Add(-time.Minute), "gerald", "Added user: mary (user)"))

	got, err := l.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Entry{Time: now, Actor: "gerald", Action: "Deleted user: mary"}, got[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}
