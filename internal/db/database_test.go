package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"label-store/internal/label"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := New(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestNew_PragmasOnEveryConnection(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// hold two connections at once so the pool has to open a second one
	first, err := db.conn.Conn(ctx)
	require.NoError(t, err)
	defer first.Close()
	second, err := db.conn.Conn(ctx)
	require.NoError(t, err)
	defer second.Close()

	for i, c := range []*sql.Conn{first, second} {
		var busyTimeout, foreignKeys int
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys))
		assert.Equal(t, 5000, busyTimeout, "connection %d", i)
		assert.Equal(t, 1, foreignKeys, "connection %d", i)

		var journalMode string
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode))
		assert.Equal(t, "wal", journalMode, "connection %d", i)
	}
}

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"labels.db?_pragma=journal_mode%28WAL%29&_pragma=synchronous%28NORMAL%29&_pragma=busy_timeout%285000%29&_pragma=foreign_keys%281%29",
		dsn("labels.db"))
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate(context.Background()))
}

func TestCreateRecord(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec, err := db.CreateRecord(ctx, label.MustNew("test"))
	require.NoError(t, err)
	assert.Positive(t, rec.ID)
	assert.Equal(t, "test", rec.Label.String())
	assert.Equal(t, []label.Label{label.MustNew("test")}, rec.LabelArray)
	assert.False(t, rec.LabelNullable.Valid)
	assert.False(t, rec.LabelArrayNullable.Valid)

	got, err := db.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	second, err := db.CreateRecord(ctx, label.MustNew("other"))
	require.NoError(t, err)
	assert.Greater(t, second.ID, rec.ID)
}

func TestGetRecord_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetRecord(context.Background(), 42)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestGetRecord_NullableColumns(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO example_models (label, label_nullable, label_array, label_array_nullable)
		 VALUES ('main', 'extra', '["a","b","a"]', '[]')`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	rec, err := db.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, label.NullLabelOf(label.MustNew("extra")), rec.LabelNullable)
	assert.Equal(t, []string{"a", "b", "a"}, label.Strings(rec.LabelArray))
	assert.True(t, rec.LabelArrayNullable.Valid)
	assert.Empty(t, rec.LabelArrayNullable.Labels)
}

func TestGetRecord_RejectsCorruptRows(t *testing.T) {
	tests := []struct {
		name   string
		values string
	}{
		{"scalar", `('bad label!', NULL, '["ok"]', NULL)`},
		{"empty scalar", `('', NULL, '["ok"]', NULL)`},
		{"nullable scalar", `('ok', 'not-ok', '["ok"]', NULL)`},
		{"array element", `('ok', NULL, '["ok","no way"]', NULL)`},
		{"nullable array element", `('ok', NULL, '["ok"]', '["fine","-"]')`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			ctx := context.Background()

			res, err := db.conn.ExecContext(ctx,
				"INSERT INTO example_models (label, label_nullable, label_array, label_array_nullable) VALUES "+tt.values)
			require.NoError(t, err)
			id, err := res.LastInsertId()
			require.NoError(t, err)

			rec, err := db.GetRecord(ctx, id)
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, label.ErrInvalidLabel)

			_, err = db.ListRecords(ctx)
			assert.ErrorIs(t, err, label.ErrInvalidLabel)
		})
	}
}

func TestGetRecord_MalformedArray(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO example_models (label, label_array) VALUES ('ok', 'not json')`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = db.GetRecord(ctx, id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, label.ErrInvalidLabel)
}

func TestListRecords(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	records, err := db.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	for _, s := range []string{"one", "two", "three"} {
		_, err := db.CreateRecord(ctx, label.MustNew(s))
		require.NoError(t, err)
	}

	records, err = db.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "one", records[0].Label.String())
	assert.Equal(t, "three", records[2].Label.String())
	assert.Less(t, records[0].ID, records[1].ID)
}

func TestBulkCreateRecords(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// more than one chunk
	labels := make([]label.Label, 0, 600)
	for i := 0; i < 600; i++ {
		labels = append(labels, label.MustNew(fmt.Sprintf("label%d", i)))
	}

	records, err := db.BulkCreateRecords(ctx, labels)
	require.NoError(t, err)
	require.Len(t, records, len(labels))
	for i, rec := range records {
		assert.Equal(t, labels[i], rec.Label)
		assert.Equal(t, []label.Label{labels[i]}, rec.LabelArray)
		if i > 0 {
			assert.Greater(t, rec.ID, records[i-1].ID)
		}
	}

	all, err := db.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(labels))

	none, err := db.BulkCreateRecords(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBulkCreateRecords_RollsBackOnInvalidLabel(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.BulkCreateRecords(ctx, []label.Label{label.MustNew("good"), {}})
	assert.ErrorIs(t, err, label.ErrInvalidLabel)

	all, err := db.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
