package migration

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations, "sql/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"sql/00001_create_documents.sql", "sql/00002_create_tags.sql"}, files)

	body, err := fs.ReadFile(migrations, "sql/00001_create_documents.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "documents_attachment_all_or_nothing")
	assert.Contains(t, string(body), "-- +goose Down")
}

func TestEnsureMigrated(t *testing.T) {
	orig := gooseUp
	defer func() { gooseUp = orig }()

	t.Run("success", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		var gotDir string
		gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
			gotDir = dir
			return nil
		}

		err := EnsureMigrated(context.Background(), nil, zap.New(core), "db.local")

		require.NoError(t, err)
		assert.Equal(t, "sql", gotDir)
		assert.Equal(t, 1, logs.FilterMessage("db_migration_success").Len())
	})

	t.Run("failure", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
			return errors.New("relation exists")
		}

		err := EnsureMigrated(context.Background(), nil, zap.New(core), "db.local")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "run migrations: relation exists")
		entries := logs.FilterMessage("db_migration_failed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "db.local", entries[0].ContextMap()["db_host"])
	})
}
