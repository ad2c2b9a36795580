package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Mufassa12/contrivance/internal/domain/spreadsheet"
)

// SpreadsheetRepository is a Postgres implementation of spreadsheet.Repository
type SpreadsheetRepository struct {
	db *sql.DB
}

// NewSpreadsheetRepository constructs a SpreadsheetRepository
func NewSpreadsheetRepository(db *sql.DB) *SpreadsheetRepository {
	return &SpreadsheetRepository{db: db}
}

func scanSpreadsheet(row scanner) (*spreadsheet.Spreadsheet, error) {
	var s spreadsheet.Spreadsheet
	var description sql.NullString
	var settings []byte
	var collaborators []string
	err := row.Scan(&s.ID, &s.Name, &description, &s.OwnerID, &s.IsPublic, &settings,
		pq.Array(&collaborators), &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		s.Description = description.String
	}
	s.Settings = settings
	for _, c := range collaborators {
		id, err := uuid.Parse(c)
		if err != nil {
			return nil, fmt.Errorf("parse collaborator id: %w", err)
		}
		s.Collaborators = append(s.Collaborators, id)
	}
	return &s, nil
}

// spreadsheetQuery aggregates accepted collaborator ids alongside each row
const spreadsheetQuery = `
SELECT s.id, s.name, s.description, s.owner_id, s.is_public, s.settings,
       COALESCE(array_agg(c.user_id::text) FILTER (WHERE c.user_id IS NOT NULL), '{}'),
       s.created_at, s.updated_at
FROM spreadsheets s
LEFT JOIN spreadsheet_collaborators c ON c.spreadsheet_id = s.id`

func (r *SpreadsheetRepository) CreateSpreadsheet(ctx context.Context, s *spreadsheet.Spreadsheet) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO spreadsheets (id,name,description,owner_id,is_public,settings,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.Name, nullString(s.Description), s.OwnerID, s.IsPublic, nullBytes(s.Settings), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create spreadsheet: %w", err)
	}
	return nil
}

func (r *SpreadsheetRepository) FindSpreadsheetByID(ctx context.Context, id uuid.UUID) (*spreadsheet.Spreadsheet, error) {
	row := r.db.QueryRowContext(ctx, spreadsheetQuery+` WHERE s.id=$1 GROUP BY s.id`, id)
	s, err := scanSpreadsheet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, spreadsheet.ErrSpreadsheetNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *SpreadsheetRepository) ListSpreadsheetsForUser(ctx context.Context, userID uuid.UUID) ([]*spreadsheet.Spreadsheet, error) {
	rows, err := r.db.QueryContext(ctx,
		spreadsheetQuery+`
		 WHERE s.owner_id=$1
		    OR s.id IN (SELECT spreadsheet_id FROM spreadsheet_collaborators WHERE user_id=$1)
		 GROUP BY s.id
		 ORDER BY s.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list spreadsheets: %w", err)
	}
	defer rows.Close()

	var result []*spreadsheet.Spreadsheet
	for rows.Next() {
		s, err := scanSpreadsheet(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *SpreadsheetRepository) UpdateSpreadsheet(ctx context.Context, s *spreadsheet.Spreadsheet) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE spreadsheets SET name=$2, description=$3, is_public=$4, settings=$5, updated_at=$6 WHERE id=$1`,
		s.ID, s.Name, nullString(s.Description), s.IsPublic, nullBytes(s.Settings), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update spreadsheet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return spreadsheet.ErrSpreadsheetNotFound
	}
	return nil
}

func (r *SpreadsheetRepository) DeleteSpreadsheet(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM spreadsheets WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete spreadsheet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return spreadsheet.ErrSpreadsheetNotFound
	}
	return nil
}

const columnColumns = `id,spreadsheet_id,name,column_type,position,is_required,default_value,created_at,updated_at`

func scanColumn(row scanner) (*spreadsheet.Column, error) {
	var c spreadsheet.Column
	var defaultValue sql.NullString
	err := row.Scan(&c.ID, &c.SpreadsheetID, &c.Name, &c.Type, &c.Position, &c.Required, &defaultValue, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if defaultValue.Valid {
		c.DefaultValue = defaultValue.String
	}
	return &c, nil
}

func (r *SpreadsheetRepository) CreateColumn(ctx context.Context, c *spreadsheet.Column) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO spreadsheet_columns (`+columnColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.SpreadsheetID, c.Name, c.Type, c.Position, c.Required, nullString(c.DefaultValue), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create column: %w", err)
	}
	return nil
}

func (r *SpreadsheetRepository) FindColumnByID(ctx context.Context, id uuid.UUID) (*spreadsheet.Column, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columnColumns+` FROM spreadsheet_columns WHERE id=$1`, id)
	c, err := scanColumn(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, spreadsheet.ErrColumnNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *SpreadsheetRepository) ListColumns(ctx context.Context, spreadsheetID uuid.UUID) ([]spreadsheet.Column, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columnColumns+` FROM spreadsheet_columns WHERE spreadsheet_id=$1 ORDER BY position`, spreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	var result []spreadsheet.Column
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *SpreadsheetRepository) UpdateColumn(ctx context.Context, c *spreadsheet.Column) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE spreadsheet_columns SET name=$2, column_type=$3, position=$4, is_required=$5, default_value=$6, updated_at=$7 WHERE id=$1`,
		c.ID, c.Name, c.Type, c.Position, c.Required, nullString(c.DefaultValue), c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update column: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return spreadsheet.ErrColumnNotFound
	}
	return nil
}

func (r *SpreadsheetRepository) DeleteColumn(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM spreadsheet_columns WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete column: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return spreadsheet.ErrColumnNotFound
	}
	return nil
}

const rowColumns = `id,spreadsheet_id,row_data,position,created_by,updated_by,created_at,updated_at`

func scanRow(row scanner) (*spreadsheet.Row, error) {
	var r spreadsheet.Row
	var data []byte
	err := row.Scan(&r.ID, &r.SpreadsheetID, &data, &r.Position, &r.CreatedBy, &r.UpdatedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Data = data
	return &r, nil
}

func (r *SpreadsheetRepository) CreateRow(ctx context.Context, row *spreadsheet.Row) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO spreadsheet_rows (`+rowColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		row.ID, row.SpreadsheetID, []byte(row.Data), row.Position, row.CreatedBy, row.UpdatedBy, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create row: %w", err)
	}
	return nil
}

func (r *SpreadsheetRepository) FindRowByID(ctx context.Context, id uuid.UUID) (*spreadsheet.Row, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+rowColumns+` FROM spreadsheet_rows WHERE id=$1`, id)
	result, err := scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, spreadsheet.ErrRowNotFound
		}
		return nil, err
	}
	return result, nil
}

func (r *SpreadsheetRepository) ListRows(ctx context.Context, spreadsheetID uuid.UUID) ([]spreadsheet.Row, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rowColumns+` FROM spreadsheet_rows WHERE spreadsheet_id=$1 ORDER BY position, created_at`, spreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	var result []spreadsheet.Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

func (r *SpreadsheetRepository) UpdateRow(ctx context.Context, row *spreadsheet.Row) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE spreadsheet_rows SET row_data=$2, position=$3, updated_by=$4, updated_at=$5 WHERE id=$1`,
		row.ID, []byte(row.Data), row.Position, row.UpdatedBy, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update row: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return spreadsheet.ErrRowNotFound
	}
	return nil
}

func (r *SpreadsheetRepository) DeleteRow(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM spreadsheet_rows WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return spreadsheet.ErrRowNotFound
	}
	return nil
}

// nullString returns nil for an empty string
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullBytes returns nil for empty JSON payloads
func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
