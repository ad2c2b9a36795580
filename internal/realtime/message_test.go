package realtime

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mufassa12/contrivance/internal/domain/spreadsheet"
)

func TestDecodeDispatchesOnTypeTag(t *testing.T) {
	userID := uuid.New()
	sheetID := uuid.New()

	data, err := UserJoined(userID, sheetID).Encode()
	require.NoError(t, err)

	msg, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeUserJoined, msg.Type)

	var payload UserPresencePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, userID, payload.UserID)
	assert.Equal(t, sheetID, payload.SpreadsheetID)
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"invalid json", `{"type": "row_created"`},
		{"not an object", `"row_created"`},
		{"missing type tag", `{"payload": {}}`},
		{"empty type tag", `{"type": "", "payload": {}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data))
			assert.ErrorIs(t, err, ErrMalformedMessage)
		})
	}
}

func TestDecodeUnsupportedType(t *testing.T) {
	_, err := Decode([]byte(`{"type": "cell_highlighted", "payload": {}}`))
	assert.ErrorIs(t, err, ErrUnsupportedMessage)
	assert.NotErrorIs(t, err, ErrMalformedMessage)
}

func TestDecodePreservesUnknownPayloadFields(t *testing.T) {
	// Unknown fields inside a known message's payload must not break
	// decoding; only the type tag is interpreted at this layer.
	msg, err := Decode([]byte(`{"type": "ping", "payload": {"future_field": 42}}`))
	require.NoError(t, err)
	assert.Equal(t, TypePing, msg.Type)
}

func TestRowEventCarriesFullSnapshot(t *testing.T) {
	sheetID := uuid.New()
	actor := uuid.New()
	row := spreadsheet.Row{
		ID:            uuid.New(),
		SpreadsheetID: sheetID,
		Data:          json.RawMessage(`{"name": "widget", "qty": 3}`),
		Position:      2,
		CreatedBy:     actor,
		UpdatedBy:     actor,
	}

	data, err := RowUpdated(row, actor).Encode()
	require.NoError(t, err)

	msg, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, TypeRowUpdated, msg.Type)

	var payload RowPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, row.ID, payload.Row.ID)
	assert.Equal(t, sheetID, payload.SpreadsheetID)
	assert.Equal(t, actor, payload.Actor)
	assert.JSONEq(t, `{"name": "widget", "qty": 3}`, string(payload.Row.Data))
}

func TestErrorMessageShape(t *testing.T) {
	data, err := ErrorMessage("Invalid message format", "INVALID_FORMAT").Encode()
	require.NoError(t, err)

	var raw struct {
		Type    string       `json:"type"`
		Payload ErrorPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "error", raw.Type)
	assert.Equal(t, "Invalid message format", raw.Payload.Message)
	assert.Equal(t, "INVALID_FORMAT", raw.Payload.Code)
}

func TestPongHasNoPayload(t *testing.T) {
	data, err := Pong().Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "pong"}`, string(data))
}

func TestDecodeErrorsAreDistinguishable(t *testing.T) {
	_, malformed := Decode([]byte(`not json`))
	_, unsupported := Decode([]byte(`{"type": "bogus"}`))

	assert.False(t, errors.Is(malformed, ErrUnsupportedMessage))
	assert.False(t, errors.Is(unsupported, ErrMalformedMessage))
}
