package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	cases := []struct {
		name string
		cfg  ClientConfig
		want string
	}{
		{
			"explicit dsn wins",
			ClientConfig{DSN: "postgres://x:y@z:1/db", Host: "ignored"},
			"postgres://x:y@z:1/db",
		},
		{
			"assembled from parts",
			ClientConfig{Host: "db.internal", Port: 5433, Database: "pmarb", User: "svc", Password: "pw", SSLMode: "require"},
			"postgres://svc:pw@db.internal:5433/pmarb?sslmode=require",
		},
		{
			"port and sslmode defaults",
			ClientConfig{Host: "localhost", Database: "pmarb", User: "postgres"},
			"postgres://postgres:@localhost:5432/pmarb?sslmode=disable",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DSN(tc.cfg))
		})
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		assert.True(t, strings.HasSuffix(e.Name(), ".sql"), "unexpected file %s", e.Name())
		data, err := migrationsFS.ReadFile("migrations/" + e.Name())
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}
