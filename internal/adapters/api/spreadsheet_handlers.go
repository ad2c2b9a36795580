package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Mufassa12/contrivance/internal/adapters/api/middleware"
	"github.com/Mufassa12/contrivance/internal/domain/spreadsheet"
)

// sheetError maps domain errors to HTTP responses
func sheetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, spreadsheet.ErrSpreadsheetNotFound),
		errors.Is(err, spreadsheet.ErrColumnNotFound),
		errors.Is(err, spreadsheet.ErrRowNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, spreadsheet.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// CreateSpreadsheet godoc
//
//	@Summary		Create a spreadsheet
//	@Description	Create a new spreadsheet, optionally with initial columns
//	@Tags			spreadsheets
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			spreadsheet	body		spreadsheet.CreateSpreadsheetRequest	true	"Spreadsheet creation request"
//	@Success		201			{object}	spreadsheet.Spreadsheet
//	@Failure		400			{object}	map[string]string
//	@Failure		500			{object}	map[string]string
//	@Router			/spreadsheets [post]
func (h *Handler) CreateSpreadsheet(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	var req spreadsheet.CreateSpreadsheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sheet, err := h.sheetService.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		sheetError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sheet)
}

// ListSpreadsheets godoc
//
//	@Summary		List spreadsheets
//	@Description	List the spreadsheets the user owns or collaborates on
//	@Tags			spreadsheets
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		spreadsheet.Spreadsheet
//	@Failure		500	{object}	map[string]string
//	@Router			/spreadsheets [get]
func (h *Handler) ListSpreadsheets(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	sheets, err := h.sheetService.List(c.Request.Context(), user.ID)
	if err != nil {
		sheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, sheets)
}

// GetSpreadsheet godoc
//
//	@Summary		Get a spreadsheet
//	@Description	Get a spreadsheet with its columns and rows
//	@Tags			spreadsheets
//	@Produce		json
//	@Security		BearerAuth
//	@Param			spreadsheetId	path		string	true	"Spreadsheet ID"
//	@Success		200				{object}	spreadsheet.Details
//	@Failure		403				{object}	map[string]string
//	@Failure		404				{object}	map[string]string
//	@Router			/spreadsheets/{spreadsheetId} [get]
func (h *Handler) GetSpreadsheet(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	id, ok := pathUUID(c, "spreadsheetId")
	if !ok {
		return
	}

	details, err := h.sheetService.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		sheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// UpdateSpreadsheet godoc
//
//	@Summary		Update a spreadsheet
//	@Description	Update a spreadsheet's metadata and settings
//	@Tags			spreadsheets
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			spreadsheetId	path		string									true	"Spreadsheet ID"
//	@Param			spreadsheet		body		spreadsheet.UpdateSpreadsheetRequest	true	"Spreadsheet update request"
//	@Success		200				{object}	spreadsheet.Spreadsheet
//	@Failure		400				{object}	map[string]string
//	@Failure		403				{object}	map[string]string
//	@Failure		404				{object}	map[string]string
//	@Router			/spreadsheets/{spreadsheetId} [put]
func (h *Handler) UpdateSpreadsheet(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	id, ok := pathUUID(c, "spreadsheetId")
	if !ok {
		return
	}

	var req spreadsheet.UpdateSpreadsheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sheet, err := h.sheetService.Update(c.Request.Context(), user.ID, id, req)
	if err != nil {
		sheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, sheet)
}

// DeleteSpreadsheet godoc
//
//	@Summary		Delete a spreadsheet
//	@Description	Delete a spreadsheet; connected clients are notified
//	@Tags			spreadsheets
//	@Security		BearerAuth
//	@Param			spreadsheetId	path	string	true	"Spreadsheet ID"
//	@Success		204
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/spreadsheets/{spreadsheetId} [delete]
func (h *Handler) DeleteSpreadsheet(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	id, ok := pathUUID(c, "spreadsheetId")
	if !ok {
		return
	}

	if err := h.sheetService.Delete(c.Request.Context(), user.ID, id); err != nil {
		sheetError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateColumn godoc
//
//	@Summary		Create a column
//	@Description	Add a column to a spreadsheet
//	@Tags			columns
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			spreadsheetId	path		string							true	"Spreadsheet ID"
//	@Param			column			body		spreadsheet.CreateColumnRequest	true	"Column creation request"
//	@Success		201				{object}	spreadsheet.Column
//	@Failure		400				{object}	map[string]string
//	@Failure		403				{object}	map[string]string
//	@Failure		404				{object}	map[string]string
//	@Router			/spreadsheets/{spreadsheetId}/columns [post]
func (h *Handler) CreateColumn(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	sheetID, ok := pathUUID(c, "spreadsheetId")
	if !ok {
		return
	}

	var req spreadsheet.CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	col, err := h.sheetService.CreateColumn(c.Request.Context(), user.ID, sheetID, req)
	if err != nil {
		sheetError(c, err)
		return
	}

	c.JSON(http.StatusCreated, col)
}

// UpdateColumn godoc
//
//	@Summary		Update a column
//	@Description	Update a column's definition
//	@Tags			columns
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			spreadsheetId	path		string							true	"Spreadsheet ID"
//	@Param			columnId		path		string							true	"Column ID"
//	@Param			column			body		spreadsheet.UpdateColumnRequest	true	"Column update request"
//	@Success		200				{object}	spreadsheet.Column
//	@Failure		400				{object}	map[string]string
//	@Failure		403				{object}	map[string]string
//	@Failure		404				{object}	map[string]string
//	@Router			/spreadsheets/{spreadsheetId}/columns/{columnId} [put]
func (h *Handler) UpdateColumn(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	sheetID, ok := pathUUID(c, "spreadsheetId")
	if !ok {
		return
	}
	columnID, ok := pathUUID(c, "columnId")
	if !ok {
		return
	}

	var req spreadsheet.UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	col, err := h.sheetService.UpdateColumn(c.Request.Context(), user.ID, sheetID, columnID, req)
	if err != nil {
		sheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, col)
}

// DeleteColumn godoc
//
//	@Summary		Delete a column
//	@Description	Delete a column from a spreadsheet
//	@Tags			columns
//	@Security		BearerAuth
//	@Param			spreadsheetId	path	string	true	"Spreadsheet ID"
//	@Param			columnId		path	string	true	"Column ID"
//	@Success		204
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/spreadsheets/{spreadsheetId}/columns/{columnId} [delete]
func (h *Handler) DeleteColumn(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	sheetID, ok := pathUUID(c, "spreadsheetId")
	if !ok {
		return
	}
	columnID, ok := pathUUID(c, "columnId")
	if !ok {
		return
	}

	if err := h.sheetService.DeleteColumn(c.Request.Context(), user.ID, sheetID, columnID); err != nil {
		sheetError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateRow godoc
//
//	@Summary		Create a row
//	@Description	Add a row to a spreadsheet
//	@Tags			rows
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			spreadsheetId	path		string						true	"Spreadsheet ID"
//	@Param			row				body		spreadsheet.CreateRowRequest	true	"Row creation request"
//	@Success		201				{object}	spreadsheet.Row
//	@Failure		400				{object}	map[string]string
//	@Failure		403				{object}	map[string]string
//	@Failure		404				{object}	map[string]string
//	@Router			/spreadsheets/{spreadsheetId}/rows [post]
func (h *Handler) CreateRow(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	sheetID, ok := pathUUID(c, "spreadsheetId")
	if !ok {
		return
	}

	var req spreadsheet.CreateRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := h.sheetService.CreateRow(c.Request.Context(), user.ID, sheetID, req)
	if err != nil {
		sheetError(c, err)
		return
	}

	c.JSON(http.StatusCreated, row)
}

// UpdateRow godoc
//
//	@Summary		Update a row
//	@Description	Replace a row's data; concurrent edits resolve last-write-wins
//	@Tags			rows
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			spreadsheetId	path		string						true	"Spreadsheet ID"
//	@Param			rowId			path		string						true	"Row ID"
//	@Param			row				body		spreadsheet.UpdateRowRequest	true	"Row update request"
//	@Success		200				{object}	spreadsheet.Row
//	@Failure		400				{object}	map[string]string
//	@Failure		403				{object}	map[string]string
//	@Failure		404				{object}	map[string]string
//	@Router			/spreadsheets/{spreadsheetId}/rows/{rowId} [put]
func (h *Handler) UpdateRow(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	sheetID, ok := pathUUID(c, "spreadsheetId")
	if !ok {
		return
	}
	rowID, ok := pathUUID(c, "rowId")
	if !ok {
		return
	}

	var req spreadsheet.UpdateRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := h.sheetService.UpdateRow(c.Request.Context(), user.ID, sheetID, rowID, req)
	if err != nil {
		sheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

// DeleteRow godoc
//
//	@Summary		Delete a row
//	@Description	Delete a row from a spreadsheet
//	@Tags			rows
//	@Security		BearerAuth
//	@Param			spreadsheetId	path	string	true	"Spreadsheet ID"
//	@Param			rowId			path	string	true	"Row ID"
//	@Success		204
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/spreadsheets/{spreadsheetId}/rows/{rowId} [delete]
func (h *Handler) DeleteRow(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	sheetID, ok := pathUUID(c, "spreadsheetId")
	if !ok {
		return
	}
	rowID, ok := pathUUID(c, "rowId")
	if !ok {
		return
	}

	if err := h.sheetService.DeleteRow(c.Request.Context(), user.ID, sheetID, rowID); err != nil {
		sheetError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
