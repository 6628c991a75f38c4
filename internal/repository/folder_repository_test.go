package repository_test

import (
	"context"
	"media-vault-server/config"
	"media-vault-server/internal/model"
	"media-vault-server/internal/repository"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*config.Database, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &config.Database{DB: sqlx.NewDb(db, "postgres")}, mock
}

func folderRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"uuid", "owner_uuid", "parent_uuid", "name", "password_hash",
		"is_deleted", "deleted_at", "created_at", "updated_at",
	})
}

func TestFolderRepository_ListChildren(t *testing.T) {
	ctx := context.Background()

	t.Run("Root of drive", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := repository.NewFolderRepository(db)

		// NULL parent_uuid сравнивается через IS NOT DISTINCT FROM
		mock.ExpectQuery(`SELECT (.+)\s+FROM folders\s+WHERE owner_uuid = \$1\s+AND is_deleted = \$2\s+AND parent_uuid IS NOT DISTINCT FROM \$3\s+ORDER BY name ASC`).
			WithArgs("owner-1", false, nil).
			WillReturnRows(folderRows().
				AddRow("f1", "owner-1", nil, "Документы", nil, false, nil, time.Now(), time.Now()))

		folders, err := repo.ListChildren(ctx, db, &model.ContentFilter{OwnerUUID: "owner-1"})

		require.NoError(t, err)
		require.Len(t, folders, 1)
		assert.Equal(t, "Документы", folders[0].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Search adds ILIKE", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := repository.NewFolderRepository(db)

		mock.ExpectQuery(`AND name ILIKE '%' \|\| \$4 \|\| '%'\s+ORDER BY name ASC`).
			WithArgs("owner-1", false, nil, "отпуск").
			WillReturnRows(folderRows())

		_, err := repo.ListChildren(ctx, db, &model.ContentFilter{OwnerUUID: "owner-1", Search: "отпуск"})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Search escapes LIKE wildcards", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := repository.NewFolderRepository(db)

		// поиск по "100%_" ищет сами символы, а не шаблон
		mock.ExpectQuery(`AND name ILIKE '%' \|\| \$4 \|\| '%'`).
			WithArgs("owner-1", false, nil, `100\%\_`).
			WillReturnRows(folderRows())

		_, err := repo.ListChildren(ctx, db, &model.ContentFilter{OwnerUUID: "owner-1", Search: "100%_"})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Trash listing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := repository.NewFolderRepository(db)

		parent := "f1"
		mock.ExpectQuery(`AND is_deleted = \$2`).
			WithArgs("owner-1", true, "f1").
			WillReturnRows(folderRows())

		_, err := repo.ListChildren(ctx, db, &model.ContentFilter{OwnerUUID: "owner-1", ParentUUID: &parent, TrashOnly: true})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFolderRepository_SetDeletedByUUIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("Batch update via ANY", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := repository.NewFolderRepository(db)

		now := time.Now()
		mock.ExpectExec(`UPDATE folders\s+SET is_deleted = \$3, deleted_at = \$4, updated_at = NOW\(\)\s+WHERE owner_uuid = \$1 AND uuid = ANY\(\$2\)`).
			WithArgs("owner-1", pq.Array([]string{"f1", "f2"}), true, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := repo.SetDeletedByUUIDs(ctx, db, "owner-1", []string{"f1", "f2"}, true, &now)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty slice is no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := repository.NewFolderRepository(db)

		err := repo.SetDeletedByUUIDs(ctx, db, "owner-1", nil, true, nil)

		require.NoError(t, err)
		// запрос к БД не уходит
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFolderRepository_ListNav(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewFolderRepository(db)

	mock.ExpectQuery(`\(password_hash IS NOT NULL\) AS has_password\s+FROM folders\s+WHERE owner_uuid = \$1 AND is_deleted = FALSE`).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"uuid", "name", "parent_uuid", "has_password"}).
			AddRow("f1", "Защищённая", nil, true).
			AddRow("f2", "Обычная", nil, false))

	items, err := repo.ListNav(context.Background(), db, "owner-1")

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].HasPassword)
	assert.False(t, items[1].HasPassword)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewFolderRepository(db)

	parent := "parent-1"
	hash := "bcrypt-hash"
	folder := &model.Folder{
		UUID:         "f1",
		OwnerUUID:    "owner-1",
		ParentUUID:   &parent,
		Name:         "Новая",
		PasswordHash: &hash,
	}

	mock.ExpectExec(`INSERT INTO folders \(uuid, owner_uuid, parent_uuid, name, password_hash\)`).
		WithArgs("f1", "owner-1", "parent-1", "Новая", "bcrypt-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), db, folder))
	assert.NoError(t, mock.ExpectationsWereMet())
}
