package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	got, err := MigrateURL("postgres://app:secret@db:5432/catalog?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "pgx5://app:secret@db:5432/catalog?sslmode=disable", got)

	got, err = MigrateURL("postgresql://db/catalog")
	require.NoError(t, err)
	assert.Equal(t, "pgx5://db/catalog", got)

	_, err = MigrateURL("host=db user=app")
	assert.Error(t, err)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	assert.True(t, names["0001_init.up.sql"])
	assert.True(t, names["0001_init.down.sql"])
}
