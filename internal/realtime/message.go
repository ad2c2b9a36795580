// Package realtime implements the live-update layer for collaborative
// spreadsheets: the tagged wire protocol, the per-spreadsheet connection
// registry, and the per-socket connection handle.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Mufassa12/contrivance/internal/domain/spreadsheet"
)

// MessageType discriminates protocol messages (wire-stable).
type MessageType string

const (
	TypeUserJoined         MessageType = "user_joined"
	TypeUserLeft           MessageType = "user_left"
	TypeRowCreated         MessageType = "row_created"
	TypeRowUpdated         MessageType = "row_updated"
	TypeRowDeleted         MessageType = "row_deleted"
	TypeColumnCreated      MessageType = "column_created"
	TypeColumnUpdated      MessageType = "column_updated"
	TypeColumnDeleted      MessageType = "column_deleted"
	TypeSpreadsheetUpdated MessageType = "spreadsheet_updated"
	TypeSpreadsheetDeleted MessageType = "spreadsheet_deleted"
	TypeError              MessageType = "error"
	TypePing               MessageType = "ping"
	TypePong               MessageType = "pong"
)

// Protocol errors
var (
	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnsupportedMessage = errors.New("unsupported message type")
)

// Message is the envelope exchanged over the socket and used internally
// for fan-out. The tag travels with the payload so a receiver can
// dispatch without external schema knowledge. Events carry full
// snapshots of the mutated entity, not deltas: a client that misses one
// simply re-fetches through the HTTP API.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// UserPresencePayload announces a user joining or leaving a spreadsheet
type UserPresencePayload struct {
	UserID        uuid.UUID `json:"user_id"`
	SpreadsheetID uuid.UUID `json:"spreadsheet_id"`
}

// RowPayload carries the full row snapshot for row_created/row_updated
type RowPayload struct {
	SpreadsheetID uuid.UUID       `json:"spreadsheet_id"`
	Row           spreadsheet.Row `json:"row"`
	Actor         uuid.UUID       `json:"actor"`
}

// RowDeletedPayload identifies a deleted row
type RowDeletedPayload struct {
	SpreadsheetID uuid.UUID `json:"spreadsheet_id"`
	RowID         uuid.UUID `json:"row_id"`
	Actor         uuid.UUID `json:"actor"`
}

// ColumnPayload carries the full column snapshot for column_created/column_updated
type ColumnPayload struct {
	SpreadsheetID uuid.UUID          `json:"spreadsheet_id"`
	Column        spreadsheet.Column `json:"column"`
	Actor         uuid.UUID          `json:"actor"`
}

// ColumnDeletedPayload identifies a deleted column
type ColumnDeletedPayload struct {
	SpreadsheetID uuid.UUID `json:"spreadsheet_id"`
	ColumnID      uuid.UUID `json:"column_id"`
	Actor         uuid.UUID `json:"actor"`
}

// SpreadsheetPayload carries the full spreadsheet snapshot for spreadsheet_updated
type SpreadsheetPayload struct {
	Spreadsheet spreadsheet.Spreadsheet `json:"spreadsheet"`
	Actor       uuid.UUID               `json:"actor"`
}

// SpreadsheetDeletedPayload identifies a deleted spreadsheet
type SpreadsheetDeletedPayload struct {
	SpreadsheetID uuid.UUID `json:"spreadsheet_id"`
	Actor         uuid.UUID `json:"actor"`
}

// ErrorPayload reports a protocol-level problem to one client
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewMessage builds an envelope with the payload marshalled in place.
// Payload types are all local structs, so marshalling cannot fail in
// practice; a failure is a programming error and is surfaced as such.
func NewMessage(t MessageType, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: t}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return Message{Type: t, Payload: data}, nil
}

// UserJoined builds a user_joined event
func UserJoined(userID, spreadsheetID uuid.UUID) Message {
	m, _ := NewMessage(TypeUserJoined, UserPresencePayload{UserID: userID, SpreadsheetID: spreadsheetID})
	return m
}

// UserLeft builds a user_left event
func UserLeft(userID, spreadsheetID uuid.UUID) Message {
	m, _ := NewMessage(TypeUserLeft, UserPresencePayload{UserID: userID, SpreadsheetID: spreadsheetID})
	return m
}

// RowCreated builds a row_created event
func RowCreated(row spreadsheet.Row, actor uuid.UUID) Message {
	m, _ := NewMessage(TypeRowCreated, RowPayload{SpreadsheetID: row.SpreadsheetID, Row: row, Actor: actor})
	return m
}

// RowUpdated builds a row_updated event
func RowUpdated(row spreadsheet.Row, actor uuid.UUID) Message {
	m, _ := NewMessage(TypeRowUpdated, RowPayload{SpreadsheetID: row.SpreadsheetID, Row: row, Actor: actor})
	return m
}

// RowDeleted builds a row_deleted event
func RowDeleted(spreadsheetID, rowID, actor uuid.UUID) Message {
	m, _ := NewMessage(TypeRowDeleted, RowDeletedPayload{SpreadsheetID: spreadsheetID, RowID: rowID, Actor: actor})
	return m
}

// ColumnCreated builds a column_created event
func ColumnCreated(col spreadsheet.Column, actor uuid.UUID) Message {
	m, _ := NewMessage(TypeColumnCreated, ColumnPayload{SpreadsheetID: col.SpreadsheetID, Column: col, Actor: actor})
	return m
}

// ColumnUpdated builds a column_updated event
func ColumnUpdated(col spreadsheet.Column, actor uuid.UUID) Message {
	m, _ := NewMessage(TypeColumnUpdated, ColumnPayload{SpreadsheetID: col.SpreadsheetID, Column: col, Actor: actor})
	return m
}

// ColumnDeleted builds a column_deleted event
func ColumnDeleted(spreadsheetID, columnID, actor uuid.UUID) Message {
	m, _ := NewMessage(TypeColumnDeleted, ColumnDeletedPayload{SpreadsheetID: spreadsheetID, ColumnID: columnID, Actor: actor})
	return m
}

// SpreadsheetUpdated builds a spreadsheet_updated event
func SpreadsheetUpdated(s spreadsheet.Spreadsheet, actor uuid.UUID) Message {
	m, _ := NewMessage(TypeSpreadsheetUpdated, SpreadsheetPayload{Spreadsheet: s, Actor: actor})
	return m
}

// SpreadsheetDeleted builds a spreadsheet_deleted event
func SpreadsheetDeleted(spreadsheetID, actor uuid.UUID) Message {
	m, _ := NewMessage(TypeSpreadsheetDeleted, SpreadsheetDeletedPayload{SpreadsheetID: spreadsheetID, Actor: actor})
	return m
}

// ErrorMessage builds an error message for one client
func ErrorMessage(message, code string) Message {
	m, _ := NewMessage(TypeError, ErrorPayload{Message: message, Code: code})
	return m
}

// Pong builds a pong control message
func Pong() Message {
	return Message{Type: TypePong}
}

// Encode serializes the envelope once for fan-out
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses an inbound frame. Returns ErrMalformedMessage for
// invalid JSON or a missing tag, ErrUnsupportedMessage for a tag this
// protocol version does not know.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type tag", ErrMalformedMessage)
	}
	switch m.Type {
	case TypeUserJoined, TypeUserLeft,
		TypeRowCreated, TypeRowUpdated, TypeRowDeleted,
		TypeColumnCreated, TypeColumnUpdated, TypeColumnDeleted,
		TypeSpreadsheetUpdated, TypeSpreadsheetDeleted,
		TypeError, TypePing, TypePong:
		return m, nil
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnsupportedMessage, m.Type)
	}
}
