package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Mufassa12/contrivance/internal/domain/spreadsheet"
)

// SpreadsheetRepository is an in-memory implementation of spreadsheet.Repository
type SpreadsheetRepository struct {
	mu      sync.RWMutex
	sheets  map[uuid.UUID]*spreadsheet.Spreadsheet
	columns map[uuid.UUID]*spreadsheet.Column
	rows    map[uuid.UUID]*spreadsheet.Row
}

// NewSpreadsheetRepository creates a new in-memory spreadsheet repository
func NewSpreadsheetRepository() *SpreadsheetRepository {
	return &SpreadsheetRepository{
		sheets:  make(map[uuid.UUID]*spreadsheet.Spreadsheet),
		columns: make(map[uuid.UUID]*spreadsheet.Column),
		rows:    make(map[uuid.UUID]*spreadsheet.Row),
	}
}

func (r *SpreadsheetRepository) CreateSpreadsheet(_ context.Context, s *spreadsheet.Spreadsheet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *s
	r.sheets[c.ID] = &c
	return nil
}

func (r *SpreadsheetRepository) FindSpreadsheetByID(_ context.Context, id uuid.UUID) (*spreadsheet.Spreadsheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.sheets[id]
	if !exists {
		return nil, spreadsheet.ErrSpreadsheetNotFound
	}
	c := *s
	return &c, nil
}

func (r *SpreadsheetRepository) ListSpreadsheetsForUser(_ context.Context, userID uuid.UUID) ([]*spreadsheet.Spreadsheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*spreadsheet.Spreadsheet
	for _, s := range r.sheets {
		if s.CanEdit(userID) {
			c := *s
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *SpreadsheetRepository) UpdateSpreadsheet(_ context.Context, s *spreadsheet.Spreadsheet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sheets[s.ID]; !exists {
		return spreadsheet.ErrSpreadsheetNotFound
	}
	c := *s
	r.sheets[c.ID] = &c
	return nil
}

func (r *SpreadsheetRepository) DeleteSpreadsheet(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sheets[id]; !exists {
		return spreadsheet.ErrSpreadsheetNotFound
	}
	delete(r.sheets, id)
	for cid, col := range r.columns {
		if col.SpreadsheetID == id {
			delete(r.columns, cid)
		}
	}
	for rid, row := range r.rows {
		if row.SpreadsheetID == id {
			delete(r.rows, rid)
		}
	}
	return nil
}

func (r *SpreadsheetRepository) CreateColumn(_ context.Context, c *spreadsheet.Column) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	col := *c
	r.columns[col.ID] = &col
	return nil
}

func (r *SpreadsheetRepository) FindColumnByID(_ context.Context, id uuid.UUID) (*spreadsheet.Column, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	col, exists := r.columns[id]
	if !exists {
		return nil, spreadsheet.ErrColumnNotFound
	}
	c := *col
	return &c, nil
}

func (r *SpreadsheetRepository) ListColumns(_ context.Context, spreadsheetID uuid.UUID) ([]spreadsheet.Column, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []spreadsheet.Column
	for _, col := range r.columns {
		if col.SpreadsheetID == spreadsheetID {
			result = append(result, *col)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (r *SpreadsheetRepository) UpdateColumn(_ context.Context, c *spreadsheet.Column) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.columns[c.ID]; !exists {
		return spreadsheet.ErrColumnNotFound
	}
	col := *c
	r.columns[col.ID] = &col
	return nil
}

func (r *SpreadsheetRepository) DeleteColumn(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.columns[id]; !exists {
		return spreadsheet.ErrColumnNotFound
	}
	delete(r.columns, id)
	return nil
}

func (r *SpreadsheetRepository) CreateRow(_ context.Context, row *spreadsheet.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *row
	r.rows[c.ID] = &c
	return nil
}

func (r *SpreadsheetRepository) FindRowByID(_ context.Context, id uuid.UUID) (*spreadsheet.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, exists := r.rows[id]
	if !exists {
		return nil, spreadsheet.ErrRowNotFound
	}
	c := *row
	return &c, nil
}

func (r *SpreadsheetRepository) ListRows(_ context.Context, spreadsheetID uuid.UUID) ([]spreadsheet.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []spreadsheet.Row
	for _, row := range r.rows {
		if row.SpreadsheetID == spreadsheetID {
			result = append(result, *row)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (r *SpreadsheetRepository) UpdateRow(_ context.Context, row *spreadsheet.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rows[row.ID]; !exists {
		return spreadsheet.ErrRowNotFound
	}
	c := *row
	r.rows[c.ID] = &c
	return nil
}

func (r *SpreadsheetRepository) DeleteRow(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rows[id]; !exists {
		return spreadsheet.ErrRowNotFound
	}
	delete(r.rows, id)
	return nil
}
