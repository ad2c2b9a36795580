// Package spreadsheet implements spreadsheet CRUD. Every successful
// mutation fans out a full-snapshot event to the spreadsheet's live
// connections; delivery is best-effort and never fails the request.
package spreadsheet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Mufassa12/contrivance/internal/domain/spreadsheet"
	"github.com/Mufassa12/contrivance/internal/realtime"
)

// Service handles spreadsheet operations
type Service struct {
	repo        spreadsheet.Repository
	broadcaster realtime.Broadcaster
}

// NewService creates a new spreadsheet service
func NewService(repo spreadsheet.Repository, broadcaster realtime.Broadcaster) *Service {
	return &Service{
		repo:        repo,
		broadcaster: broadcaster,
	}
}

// Create creates a spreadsheet owned by actor, with optional initial columns
func (s *Service) Create(ctx context.Context, actor uuid.UUID, req spreadsheet.CreateSpreadsheetRequest) (*spreadsheet.Spreadsheet, error) {
	now := time.Now()
	sheet := &spreadsheet.Spreadsheet{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     actor,
		IsPublic:    req.IsPublic,
		Settings:    req.Settings,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateSpreadsheet(ctx, sheet); err != nil {
		return nil, fmt.Errorf("create spreadsheet: %w", err)
	}

	for i, colReq := range req.Columns {
		col := &spreadsheet.Column{
			ID:            uuid.New(),
			SpreadsheetID: sheet.ID,
			Name:          colReq.Name,
			Type:          colReq.Type,
			Position:      i,
			Required:      colReq.Required,
			DefaultValue:  colReq.DefaultValue,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if colReq.Position != 0 {
			col.Position = colReq.Position
		}
		if err := s.repo.CreateColumn(ctx, col); err != nil {
			return nil, fmt.Errorf("create column: %w", err)
		}
	}
	return sheet, nil
}

// Get returns the spreadsheet with columns and rows, enforcing read access
func (s *Service) Get(ctx context.Context, actor, id uuid.UUID) (*spreadsheet.Details, error) {
	sheet, err := s.repo.FindSpreadsheetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sheet.CanAccess(actor) {
		return nil, spreadsheet.ErrAccessDenied
	}
	columns, err := s.repo.ListColumns(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	rows, err := s.repo.ListRows(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	return &spreadsheet.Details{Spreadsheet: *sheet, Columns: columns, Rows: rows}, nil
}

// List returns the spreadsheets the user owns or collaborates on
func (s *Service) List(ctx context.Context, actor uuid.UUID) ([]*spreadsheet.Spreadsheet, error) {
	return s.repo.ListSpreadsheetsForUser(ctx, actor)
}

// Update applies settings changes and broadcasts the updated snapshot
func (s *Service) Update(ctx context.Context, actor, id uuid.UUID, req spreadsheet.UpdateSpreadsheetRequest) (*spreadsheet.Spreadsheet, error) {
	sheet, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		sheet.Name = req.Name
	}
	if req.Description != "" {
		sheet.Description = req.Description
	}
	if req.IsPublic != nil {
		sheet.IsPublic = *req.IsPublic
	}
	if req.Settings != nil {
		sheet.Settings = req.Settings
	}
	sheet.UpdatedAt = time.Now()

	if err := s.repo.UpdateSpreadsheet(ctx, sheet); err != nil {
		return nil, fmt.Errorf("update spreadsheet: %w", err)
	}
	s.broadcaster.Broadcast(id, realtime.SpreadsheetUpdated(*sheet, actor))
	return sheet, nil
}

// Delete removes the spreadsheet and notifies connected clients
func (s *Service) Delete(ctx context.Context, actor, id uuid.UUID) error {
	sheet, err := s.repo.FindSpreadsheetByID(ctx, id)
	if err != nil {
		return err
	}
	if sheet.OwnerID != actor {
		return spreadsheet.ErrAccessDenied
	}
	if err := s.repo.DeleteSpreadsheet(ctx, id); err != nil {
		return fmt.Errorf("delete spreadsheet: %w", err)
	}
	s.broadcaster.Broadcast(id, realtime.SpreadsheetDeleted(id, actor))
	return nil
}

// CreateColumn appends a column and broadcasts its snapshot
func (s *Service) CreateColumn(ctx context.Context, actor, spreadsheetID uuid.UUID, req spreadsheet.CreateColumnRequest) (*spreadsheet.Column, error) {
	if _, err := s.editable(ctx, actor, spreadsheetID); err != nil {
		return nil, err
	}
	now := time.Now()
	col := &spreadsheet.Column{
		ID:            uuid.New(),
		SpreadsheetID: spreadsheetID,
		Name:          req.Name,
		Type:          req.Type,
		Position:      req.Position,
		Required:      req.Required,
		DefaultValue:  req.DefaultValue,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateColumn(ctx, col); err != nil {
		return nil, fmt.Errorf("create column: %w", err)
	}
	s.broadcaster.Broadcast(spreadsheetID, realtime.ColumnCreated(*col, actor))
	return col, nil
}

// UpdateColumn modifies a column and broadcasts its snapshot
func (s *Service) UpdateColumn(ctx context.Context, actor, spreadsheetID, columnID uuid.UUID, req spreadsheet.UpdateColumnRequest) (*spreadsheet.Column, error) {
	if _, err := s.editable(ctx, actor, spreadsheetID); err != nil {
		return nil, err
	}
	col, err := s.repo.FindColumnByID(ctx, columnID)
	if err != nil {
		return nil, err
	}
	if col.SpreadsheetID != spreadsheetID {
		return nil, spreadsheet.ErrColumnNotFound
	}

	if req.Name != "" {
		col.Name = req.Name
	}
	if req.Type != "" {
		col.Type = req.Type
	}
	if req.Position != nil {
		col.Position = *req.Position
	}
	if req.Required != nil {
		col.Required = *req.Required
	}
	if req.DefaultValue != "" {
		col.DefaultValue = req.DefaultValue
	}
	col.UpdatedAt = time.Now()

	if err := s.repo.UpdateColumn(ctx, col); err != nil {
		return nil, fmt.Errorf("update column: %w", err)
	}
	s.broadcaster.Broadcast(spreadsheetID, realtime.ColumnUpdated(*col, actor))
	return col, nil
}

// DeleteColumn removes a column and notifies connected clients
func (s *Service) DeleteColumn(ctx context.Context, actor, spreadsheetID, columnID uuid.UUID) error {
	if _, err := s.editable(ctx, actor, spreadsheetID); err != nil {
		return err
	}
	col, err := s.repo.FindColumnByID(ctx, columnID)
	if err != nil {
		return err
	}
	if col.SpreadsheetID != spreadsheetID {
		return spreadsheet.ErrColumnNotFound
	}
	if err := s.repo.DeleteColumn(ctx, columnID); err != nil {
		return fmt.Errorf("delete column: %w", err)
	}
	s.broadcaster.Broadcast(spreadsheetID, realtime.ColumnDeleted(spreadsheetID, columnID, actor))
	return nil
}

// CreateRow appends a row and broadcasts its snapshot
func (s *Service) CreateRow(ctx context.Context, actor, spreadsheetID uuid.UUID, req spreadsheet.CreateRowRequest) (*spreadsheet.Row, error) {
	if _, err := s.editable(ctx, actor, spreadsheetID); err != nil {
		return nil, err
	}
	now := time.Now()
	row := &spreadsheet.Row{
		ID:            uuid.New(),
		SpreadsheetID: spreadsheetID,
		Data:          req.Data,
		CreatedBy:     actor,
		UpdatedBy:     actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Position != nil {
		row.Position = *req.Position
	}
	if err := s.repo.CreateRow(ctx, row); err != nil {
		return nil, fmt.Errorf("create row: %w", err)
	}
	s.broadcaster.Broadcast(spreadsheetID, realtime.RowCreated(*row, actor))
	return row, nil
}

// UpdateRow replaces a row's data and broadcasts its snapshot.
// Concurrent edits resolve last-write-wins at the row level.
func (s *Service) UpdateRow(ctx context.Context, actor, spreadsheetID, rowID uuid.UUID, req spreadsheet.UpdateRowRequest) (*spreadsheet.Row, error) {
	if _, err := s.editable(ctx, actor, spreadsheetID); err != nil {
		return nil, err
	}
	row, err := s.repo.FindRowByID(ctx, rowID)
	if err != nil {
		return nil, err
	}
	if row.SpreadsheetID != spreadsheetID {
		return nil, spreadsheet.ErrRowNotFound
	}

	row.Data = req.Data
	if req.Position != nil {
		row.Position = *req.Position
	}
	row.UpdatedBy = actor
	row.UpdatedAt = time.Now()

	if err := s.repo.UpdateRow(ctx, row); err != nil {
		return nil, fmt.Errorf("update row: %w", err)
	}
	s.broadcaster.Broadcast(spreadsheetID, realtime.RowUpdated(*row, actor))
	return row, nil
}

// DeleteRow removes a row and notifies connected clients
func (s *Service) DeleteRow(ctx context.Context, actor, spreadsheetID, rowID uuid.UUID) error {
	if _, err := s.editable(ctx, actor, spreadsheetID); err != nil {
		return err
	}
	row, err := s.repo.FindRowByID(ctx, rowID)
	if err != nil {
		return err
	}
	if row.SpreadsheetID != spreadsheetID {
		return spreadsheet.ErrRowNotFound
	}
	if err := s.repo.DeleteRow(ctx, rowID); err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	s.broadcaster.Broadcast(spreadsheetID, realtime.RowDeleted(spreadsheetID, rowID, actor))
	return nil
}

// CanAccess reports whether the user may open the spreadsheet (used by
// the websocket handshake)
func (s *Service) CanAccess(ctx context.Context, actor, id uuid.UUID) error {
	sheet, err := s.repo.FindSpreadsheetByID(ctx, id)
	if err != nil {
		return err
	}
	if !sheet.CanAccess(actor) {
		return spreadsheet.ErrAccessDenied
	}
	return nil
}

func (s *Service) editable(ctx context.Context, actor, id uuid.UUID) (*spreadsheet.Spreadsheet, error) {
	sheet, err := s.repo.FindSpreadsheetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sheet.CanEdit(actor) {
		return nil, spreadsheet.ErrAccessDenied
	}
	return sheet, nil
}
