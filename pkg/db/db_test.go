package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDialect(t *testing.T) {
	_, err := Dialect(Config{Type: "oracle"})
	assert.Error(t, err)

	d, err := Dialect(Config{Type: "postgres", Host: "localhost", Port: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialect(Config{Type: "sqlite", Path: t.TempDir() + "/data/test.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
}

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: subscribers.subscriber_code")))
	assert.False(t, IsDuplicateKeyErr(errors.New("connection refused")))
}

func TestNewTestIsolated(t *testing.T) {
	a, err := NewTest()
	require.NoError(t, err)
	b, err := NewTest()
	require.NoError(t, err)

	require.NoError(t, a.Exec("CREATE TABLE probe (id INTEGER)").Error)
	assert.True(t, a.Migrator().HasTable("probe"))
	assert.False(t, b.Migrator().HasTable("probe"))
}
