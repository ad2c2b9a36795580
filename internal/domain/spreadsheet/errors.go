package spreadsheet

import "errors"

var (
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
	ErrColumnNotFound      = errors.New("column not found")
	ErrRowNotFound         = errors.New("row not found")
	ErrAccessDenied        = errors.New("access to this spreadsheet is not authorized")
)
