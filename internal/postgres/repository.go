package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"label-store/internal/label"
	"label-store/internal/logger"
	"label-store/internal/models"
)

const tableName = "example_models"

var columns = []string{"id", "label", "label_nullable", "label_array", "label_array_nullable"}

// ErrRecordNotFound is returned when no row matches the requested id
var ErrRecordNotFound = errors.New("record not found")

// maxRowsPerInsert keeps a bulk insert well below the protocol's 65535
// parameter limit
const maxRowsPerInsert = 1000

// DB defines the minimal interface needed by the repository
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository stores records in PostgreSQL
type Repository struct {
	db    DB
	codec label.Codec[pgtype.Text]
}

// NewRepository creates a repository on db
func NewRepository(db DB) *Repository {
	return &Repository{db: db, codec: textCodec{}}
}

// recordRow is the raw shape of a row before labels are validated
type recordRow struct {
	ID                 int64          `db:"id"`
	Label              pgtype.Text    `db:"label"`
	LabelNullable      pgtype.Text    `db:"label_nullable"`
	LabelArray         []pgtype.Text  `db:"label_array"`
	LabelArrayNullable *[]pgtype.Text `db:"label_array_nullable"`
}

func (r *Repository) decode(row *recordRow) (*models.Record, error) {
	rec := &models.Record{ID: row.ID}
	var err error
	if rec.Label, err = r.codec.Decode(row.Label); err != nil {
		return nil, fmt.Errorf("record %d: column label: %w", row.ID, err)
	}
	if rec.LabelNullable, err = label.DecodeNullable(r.codec, nullableText(row.LabelNullable)); err != nil {
		return nil, fmt.Errorf("record %d: column label_nullable: %w", row.ID, err)
	}
	if row.LabelArray == nil {
		return nil, fmt.Errorf("record %d: column label_array: %w", row.ID, errNullText)
	}
	if rec.LabelArray, err = label.DecodeArray(r.codec, row.LabelArray); err != nil {
		return nil, fmt.Errorf("record %d: column label_array: %w", row.ID, err)
	}
	if rec.LabelArrayNullable, err = label.DecodeNullableArray(r.codec, row.LabelArrayNullable); err != nil {
		return nil, fmt.Errorf("record %d: column label_array_nullable: %w", row.ID, err)
	}
	return rec, nil
}

// insertValues returns the label and label_array values for l. The nullable
// columns are left to their NULL default.
func (r *Repository) insertValues(l label.Label) ([]any, error) {
	rec := models.NewRecord(l)
	text, err := r.codec.Encode(rec.Label)
	if err != nil {
		return nil, fmt.Errorf("column label: %w", err)
	}
	array, err := label.EncodeArray(r.codec, rec.LabelArray)
	if err != nil {
		return nil, fmt.Errorf("column label_array: %w", err)
	}
	return []any{text, array}, nil
}

// CreateRecord inserts a record whose label column is l and whose label_array
// column is [l], and returns the row as stored
func (r *Repository) CreateRecord(ctx context.Context, l label.Label) (*models.Record, error) {
	values, err := r.insertValues(l)
	if err != nil {
		return nil, err
	}
	query, args, err := squirrel.Insert(tableName).
		Columns("label", "label_array").
		Values(values...).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}
	var row recordRow
	if err := pgxscan.Get(ctx, r.db, &row, query, args...); err != nil {
		return nil, fmt.Errorf("inserting record: %w", err)
	}
	rec, err := r.decode(&row)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("Created record", "id", rec.ID, "label", rec.Label)
	return rec, nil
}

// GetRecord loads the record with the given id
func (r *Repository) GetRecord(ctx context.Context, id int64) (*models.Record, error) {
	query, args, err := squirrel.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var row recordRow
	if err := pgxscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("%w: %d", ErrRecordNotFound, id)
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}
	return r.decode(&row)
}

// ListRecords returns all records ordered by id. A single undecodable row
// fails the whole listing.
func (r *Repository) ListRecords(ctx context.Context) ([]models.Record, error) {
	query, args, err := squirrel.Select(columns...).
		From(tableName).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var rows []*recordRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("scanning records: %w", err)
	}
	return r.decodeAll(rows)
}

func (r *Repository) decodeAll(rows []*recordRow) ([]models.Record, error) {
	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := r.decode(row)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// BulkCreateRecords creates one record per label inside a single transaction.
// The returned records are in the same order as labels.
func (r *Repository) BulkCreateRecords(ctx context.Context, labels []label.Label) ([]models.Record, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	records := make([]models.Record, 0, len(labels))
	err := r.withTransaction(ctx, func(tx pgx.Tx) error {
		for i := 0; i < len(labels); i += maxRowsPerInsert {
			chunk := labels[i:min(i+maxRowsPerInsert, len(labels))]
			insert := squirrel.Insert(tableName).Columns("label", "label_array")
			for _, l := range chunk {
				values, err := r.insertValues(l)
				if err != nil {
					return err
				}
				insert = insert.Values(values...)
			}
			query, args, err := insert.
				Suffix("RETURNING " + strings.Join(columns, ", ")).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return fmt.Errorf("building bulk insert query: %w", err)
			}
			var rows []*recordRow
			if err := pgxscan.Select(ctx, tx, &rows, query, args...); err != nil {
				return fmt.Errorf("bulk inserting records: %w", err)
			}
			if len(rows) != len(chunk) {
				return fmt.Errorf("expected %d records, got %d", len(chunk), len(rows))
			}
			decoded, err := r.decodeAll(rows)
			if err != nil {
				return err
			}
			records = append(records, decoded...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("Bulk created records", "count", len(records))
	return records, nil
}

func (r *Repository) withTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.FromContext(ctx).Warn("Transaction rollback failed after panic", "error", rbErr)
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.FromContext(ctx).Warn("Transaction rollback failed", "error", rbErr)
			}
		} else if err = tx.Commit(ctx); err != nil {
			err = fmt.Errorf("committing transaction: %w", err)
		}
	}()
	return fn(tx)
}
