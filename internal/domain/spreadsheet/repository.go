package spreadsheet

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for spreadsheet persistence
type Repository interface {
	CreateSpreadsheet(ctx context.Context, s *Spreadsheet) error
	FindSpreadsheetByID(ctx context.Context, id uuid.UUID) (*Spreadsheet, error)
	ListSpreadsheetsForUser(ctx context.Context, userID uuid.UUID) ([]*Spreadsheet, error)
	UpdateSpreadsheet(ctx context.Context, s *Spreadsheet) error
	DeleteSpreadsheet(ctx context.Context, id uuid.UUID) error

	CreateColumn(ctx context.Context, c *Column) error
	FindColumnByID(ctx context.Context, id uuid.UUID) (*Column, error)
	ListColumns(ctx context.Context, spreadsheetID uuid.UUID) ([]Column, error)
	UpdateColumn(ctx context.Context, c *Column) error
	DeleteColumn(ctx context.Context, id uuid.UUID) error

	CreateRow(ctx context.Context, r *Row) error
	FindRowByID(ctx context.Context, id uuid.UUID) (*Row, error)
	ListRows(ctx context.Context, spreadsheetID uuid.UUID) ([]Row, error)
	UpdateRow(ctx context.Context, r *Row) error
	DeleteRow(ctx context.Context, id uuid.UUID) error
}
