package spreadsheet

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ColumnType enumerates the supported cell value types
type ColumnType string

const (
	ColumnTypeText     ColumnType = "text"
	ColumnTypeNumber   ColumnType = "number"
	ColumnTypeDate     ColumnType = "date"
	ColumnTypeBoolean  ColumnType = "boolean"
	ColumnTypeSelect   ColumnType = "select"
	ColumnTypeCurrency ColumnType = "currency"
)

// Spreadsheet represents a collaborative document
type Spreadsheet struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	IsPublic      bool            `json:"is_public"`
	Settings      json.RawMessage `json:"settings,omitempty"`
	Collaborators []uuid.UUID     `json:"collaborators,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Column represents a typed column definition
type Column struct {
	ID            uuid.UUID  `json:"id"`
	SpreadsheetID uuid.UUID  `json:"spreadsheet_id"`
	Name          string     `json:"name"`
	Type          ColumnType `json:"column_type"`
	Position      int        `json:"position"`
	Required      bool       `json:"is_required"`
	DefaultValue  string     `json:"default_value,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Row represents one row of cell data, keyed by column name
type Row struct {
	ID            uuid.UUID       `json:"id"`
	SpreadsheetID uuid.UUID       `json:"spreadsheet_id"`
	Data          json.RawMessage `json:"row_data"`
	Position      int             `json:"position"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	UpdatedBy     uuid.UUID       `json:"updated_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CanAccess reports whether the user may read the spreadsheet:
// the owner, anyone if public, or a collaborator.
func (s *Spreadsheet) CanAccess(userID uuid.UUID) bool {
	if s.OwnerID == userID || s.IsPublic {
		return true
	}
	for _, id := range s.Collaborators {
		if id == userID {
			return true
		}
	}
	return false
}

// CanEdit reports whether the user may mutate the spreadsheet
func (s *Spreadsheet) CanEdit(userID uuid.UUID) bool {
	if s.OwnerID == userID {
		return true
	}
	for _, id := range s.Collaborators {
		if id == userID {
			return true
		}
	}
	return false
}

// CreateSpreadsheetRequest represents a request to create a spreadsheet
type CreateSpreadsheetRequest struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	IsPublic    bool                  `json:"is_public"`
	Settings    json.RawMessage       `json:"settings"`
	Columns     []CreateColumnRequest `json:"columns"`
}

// UpdateSpreadsheetRequest represents a request to update spreadsheet settings
type UpdateSpreadsheetRequest struct {
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	IsPublic    *bool           `json:"is_public,omitempty"`
	Settings    json.RawMessage `json:"settings,omitempty"`
}

// CreateColumnRequest represents a request to add a column
type CreateColumnRequest struct {
	Name         string     `json:"name" binding:"required"`
	Type         ColumnType `json:"column_type" binding:"required"`
	Position     int        `json:"position"`
	Required     bool       `json:"is_required"`
	DefaultValue string     `json:"default_value"`
}

// UpdateColumnRequest represents a request to update a column
type UpdateColumnRequest struct {
	Name         string     `json:"name,omitempty"`
	Type         ColumnType `json:"column_type,omitempty"`
	Position     *int       `json:"position,omitempty"`
	Required     *bool      `json:"is_required,omitempty"`
	DefaultValue string     `json:"default_value,omitempty"`
}

// CreateRowRequest represents a request to append a row
type CreateRowRequest struct {
	Data     json.RawMessage `json:"row_data" binding:"required"`
	Position *int            `json:"position"`
}

// UpdateRowRequest represents a request to replace a row's data
type UpdateRowRequest struct {
	Data     json.RawMessage `json:"row_data" binding:"required"`
	Position *int            `json:"position"`
}

// Details bundles a spreadsheet with its columns and rows
type Details struct {
	Spreadsheet Spreadsheet `json:"spreadsheet"`
	Columns     []Column    `json:"columns"`
	Rows        []Row       `json:"rows"`
}
