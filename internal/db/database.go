package db

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"label-store/internal/label"
	"label-store/internal/logger"
	"label-store/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var gooseMu sync.Mutex

const tableName = "example_models"

var columns = []string{"id", "label", "label_nullable", "label_array", "label_array_nullable"}

// ErrRecordNotFound is returned when no row matches the requested id
var ErrRecordNotFound = errors.New("record not found")

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	log  logger.Logger
}

// connPragmas run on every connection the pool opens
var connPragmas = []string{
	"journal_mode(WAL)",   // Write-Ahead Logging for better concurrency
	"synchronous(NORMAL)", // Faster than FULL, still safe
	"busy_timeout(5000)",  // Wait on locks instead of failing immediately
	"foreign_keys(1)",
}

// dsn appends the connection pragmas to dbPath as _pragma query parameters
func dsn(dbPath string) string {
	q := url.Values{}
	for _, pragma := range connPragmas {
		q.Add("_pragma", pragma)
	}
	return dbPath + "?" + q.Encode()
}

// New opens the SQLite database at dbPath. It does not create tables; call
// Migrate for that.
func New(ctx context.Context, dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	db := &DB{
		conn: conn,
		log:  logger.FromContext(ctx).With("store", "sqlite", "path", dbPath),
	}
	db.log.Debug("Opened database")
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Migrate creates or upgrades the schema from the embedded migrations
func (db *DB) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer func() {
		goose.SetBaseFS(nil)
		gooseMu.Unlock()
	}()
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(logger.NewPrintfLogger(db.log))
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.conn, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// CreateRecord inserts a record whose label column is l and whose label_array
// column is [l], and returns the row as stored
func (db *DB) CreateRecord(ctx context.Context, l label.Label) (*models.Record, error) {
	rec := models.NewRecord(l)
	values, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Insert(tableName).
		Columns(columns[1:]...).
		Values(values...).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	created, err := scanRecord(db.conn.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}

	db.log.Debug("Created record", "id", created.ID, "label", created.Label)
	return created, nil
}

// GetRecord loads the record with the given id
func (db *DB) GetRecord(ctx context.Context, id int64) (*models.Record, error) {
	query, args, err := squirrel.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rec, err := scanRecord(db.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record %d: %w", id, err)
	}
	return rec, nil
}

// ListRecords returns all records ordered by id. A single undecodable row
// fails the whole listing.
func (db *DB) ListRecords(ctx context.Context) ([]models.Record, error) {
	query, args, err := squirrel.Select(columns...).
		From(tableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// BulkCreateRecords creates one record per label inside a single transaction.
// The returned records are in the same order as labels.
func (db *DB) BulkCreateRecords(ctx context.Context, labels []label.Label) ([]models.Record, error) {
	if len(labels) == 0 {
		return nil, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// SQLite supports up to 999 parameters, so we may need to chunk
	const maxParams = 999
	const valuesPerRow = 4 // every column except id
	const maxRowsPerInsert = maxParams / valuesPerRow

	records := make([]models.Record, 0, len(labels))
	for i := 0; i < len(labels); i += maxRowsPerInsert {
		end := min(i+maxRowsPerInsert, len(labels))
		chunk := labels[i:end]

		insert := squirrel.Insert(tableName).Columns(columns[1:]...)
		for _, l := range chunk {
			values, err := encodeRecord(models.NewRecord(l))
			if err != nil {
				return nil, err
			}
			insert = insert.Values(values...)
		}

		// RETURNING yields rows in insert order
		query, args, err := insert.Suffix("RETURNING " + strings.Join(columns, ", ")).ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build bulk insert query: %w", err)
		}

		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to bulk insert records: %w", err)
		}

		n := 0
		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan returned record: %w", err)
			}
			records = append(records, *rec)
			n++
		}
		rows.Close()

		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating returned records: %w", err)
		}

		if n != len(chunk) {
			return nil, fmt.Errorf("expected %d records, got %d", len(chunk), n)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	db.log.Debug("Bulk created records", "count", len(records))
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row in columns order. The scalar columns go through
// label.Label's sql.Scanner; the array columns hold JSON text.
func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		rec         models.Record
		array       string
		nullableArr sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Label, &rec.LabelNullable, &array, &nullableArr); err != nil {
		return nil, err
	}

	labels, err := decodeArray(array)
	if err != nil {
		return nil, fmt.Errorf("column label_array: %w", err)
	}
	rec.LabelArray = labels

	if nullableArr.Valid {
		labels, err := decodeArray(nullableArr.String)
		if err != nil {
			return nil, fmt.Errorf("column label_array_nullable: %w", err)
		}
		rec.LabelArrayNullable = label.NullLabelsOf(labels...)
	}

	return &rec, nil
}

// encodeRecord returns the insert values for every column except id
func encodeRecord(rec models.Record) ([]any, error) {
	array, err := encodeArray(rec.LabelArray)
	if err != nil {
		return nil, fmt.Errorf("column label_array: %w", err)
	}

	var nullableArr sql.NullString
	if rec.LabelArrayNullable.Valid {
		s, err := encodeArray(rec.LabelArrayNullable.Labels)
		if err != nil {
			return nil, fmt.Errorf("column label_array_nullable: %w", err)
		}
		nullableArr = sql.NullString{String: s, Valid: true}
	}

	return []any{rec.Label, rec.LabelNullable, array, nullableArr}, nil
}

// SQLite has no array type; arrays are stored as a JSON list of strings
func encodeArray(labels []label.Label) (string, error) {
	ss, err := label.EncodeArray[string](label.TextCodec{}, labels)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(ss)
	if err != nil {
		return "", fmt.Errorf("failed to encode label array: %w", err)
	}
	return string(data), nil
}

func decodeArray(raw string) ([]label.Label, error) {
	var ss []string
	if err := json.Unmarshal([]byte(raw), &ss); err != nil {
		return nil, fmt.Errorf("failed to decode label array: %w", err)
	}
	if ss == nil {
		return nil, fmt.Errorf("failed to decode label array: null is not an array")
	}
	return label.DecodeArray[string](label.TextCodec{}, ss)
}
