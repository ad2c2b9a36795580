package spreadsheet

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mufassa12/contrivance/internal/adapters/db/memory"
	"github.com/Mufassa12/contrivance/internal/domain/spreadsheet"
	"github.com/Mufassa12/contrivance/internal/realtime"
)

// recordingBroadcaster captures fan-out calls instead of delivering them
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	spreadsheetID uuid.UUID
	msg           realtime.Message
}

func (b *recordingBroadcaster) Broadcast(spreadsheetID uuid.UUID, msg realtime.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{spreadsheetID: spreadsheetID, msg: msg})
}

func (b *recordingBroadcaster) types() []realtime.MessageType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]realtime.MessageType, len(b.events))
	for i, e := range b.events {
		out[i] = e.msg.Type
	}
	return out
}

func newTestService() (*Service, *recordingBroadcaster) {
	broadcaster := &recordingBroadcaster{}
	return NewService(memory.NewSpreadsheetRepository(), broadcaster), broadcaster
}

func TestCreateWithInitialColumns(t *testing.T) {
	svc, broadcaster := newTestService()
	owner := uuid.New()

	sheet, err := svc.Create(context.Background(), owner, spreadsheet.CreateSpreadsheetRequest{
		Name:        "Inventory",
		Description: "Parts inventory",
		Columns: []spreadsheet.CreateColumnRequest{
			{Name: "Part", Type: spreadsheet.ColumnTypeText, Required: true},
			{Name: "Qty", Type: spreadsheet.ColumnTypeNumber},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, owner, sheet.OwnerID)

	details, err := svc.Get(context.Background(), owner, sheet.ID)
	require.NoError(t, err)
	require.Len(t, details.Columns, 2)
	assert.Equal(t, "Part", details.Columns[0].Name)
	assert.Equal(t, 1, details.Columns[1].Position)

	// Creation itself is not broadcast; nobody can be connected yet.
	assert.Empty(t, broadcaster.types())
}

func TestGetEnforcesReadAccess(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()
	stranger := uuid.New()

	sheet, err := svc.Create(context.Background(), owner, spreadsheet.CreateSpreadsheetRequest{Name: "Private"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), stranger, sheet.ID)
	assert.ErrorIs(t, err, spreadsheet.ErrAccessDenied)

	_, err = svc.Get(context.Background(), owner, uuid.New())
	assert.ErrorIs(t, err, spreadsheet.ErrSpreadsheetNotFound)
}

func TestPublicSpreadsheetReadableNotEditable(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()
	stranger := uuid.New()

	sheet, err := svc.Create(context.Background(), owner, spreadsheet.CreateSpreadsheetRequest{
		Name:     "Open data",
		IsPublic: true,
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), stranger, sheet.ID)
	assert.NoError(t, err)

	_, err = svc.CreateRow(context.Background(), stranger, sheet.ID, spreadsheet.CreateRowRequest{
		Data: json.RawMessage(`{"a": 1}`),
	})
	assert.ErrorIs(t, err, spreadsheet.ErrAccessDenied)
}

func TestUpdateBroadcastsSnapshot(t *testing.T) {
	svc, broadcaster := newTestService()
	owner := uuid.New()

	sheet, err := svc.Create(context.Background(), owner, spreadsheet.CreateSpreadsheetRequest{Name: "Before"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), owner, sheet.ID, spreadsheet.UpdateSpreadsheetRequest{Name: "After"})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)

	require.Equal(t, []realtime.MessageType{realtime.TypeSpreadsheetUpdated}, broadcaster.types())

	var payload realtime.SpreadsheetPayload
	require.NoError(t, json.Unmarshal(broadcaster.events[0].msg.Payload, &payload))
	assert.Equal(t, "After", payload.Spreadsheet.Name)
	assert.Equal(t, owner, payload.Actor)
}

func TestDeleteRequiresOwner(t *testing.T) {
	svc, broadcaster := newTestService()
	owner := uuid.New()
	collaborator := uuid.New()

	sheet, err := svc.Create(context.Background(), owner, spreadsheet.CreateSpreadsheetRequest{Name: "Shared"})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), collaborator, sheet.ID)
	assert.ErrorIs(t, err, spreadsheet.ErrAccessDenied)

	require.NoError(t, svc.Delete(context.Background(), owner, sheet.ID))
	assert.Equal(t, []realtime.MessageType{realtime.TypeSpreadsheetDeleted}, broadcaster.types())

	_, err = svc.Get(context.Background(), owner, sheet.ID)
	assert.ErrorIs(t, err, spreadsheet.ErrSpreadsheetNotFound)
}

func TestRowLifecycleBroadcasts(t *testing.T) {
	svc, broadcaster := newTestService()
	owner := uuid.New()

	sheet, err := svc.Create(context.Background(), owner, spreadsheet.CreateSpreadsheetRequest{Name: "Rows"})
	require.NoError(t, err)

	row, err := svc.CreateRow(context.Background(), owner, sheet.ID, spreadsheet.CreateRowRequest{
		Data: json.RawMessage(`{"name": "bolt"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, owner, row.CreatedBy)

	updated, err := svc.UpdateRow(context.Background(), owner, sheet.ID, row.ID, spreadsheet.UpdateRowRequest{
		Data: json.RawMessage(`{"name": "nut"}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "nut"}`, string(updated.Data))
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	require.NoError(t, svc.DeleteRow(context.Background(), owner, sheet.ID, row.ID))

	assert.Equal(t, []realtime.MessageType{
		realtime.TypeRowCreated,
		realtime.TypeRowUpdated,
		realtime.TypeRowDeleted,
	}, broadcaster.types())

	var deleted realtime.RowDeletedPayload
	require.NoError(t, json.Unmarshal(broadcaster.events[2].msg.Payload, &deleted))
	assert.Equal(t, row.ID, deleted.RowID)
	assert.Equal(t, sheet.ID, deleted.SpreadsheetID)
}

func TestRowMustBelongToSpreadsheet(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()

	first, err := svc.Create(context.Background(), owner, spreadsheet.CreateSpreadsheetRequest{Name: "First"})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), owner, spreadsheet.CreateSpreadsheetRequest{Name: "Second"})
	require.NoError(t, err)

	row, err := svc.CreateRow(context.Background(), owner, first.ID, spreadsheet.CreateRowRequest{
		Data: json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	// Addressing a row through the wrong spreadsheet must fail.
	_, err = svc.UpdateRow(context.Background(), owner, second.ID, row.ID, spreadsheet.UpdateRowRequest{
		Data: json.RawMessage(`{"x": 1}`),
	})
	assert.ErrorIs(t, err, spreadsheet.ErrRowNotFound)

	err = svc.DeleteRow(context.Background(), owner, second.ID, row.ID)
	assert.ErrorIs(t, err, spreadsheet.ErrRowNotFound)
}

func TestColumnLifecycleBroadcasts(t *testing.T) {
	svc, broadcaster := newTestService()
	owner := uuid.New()

	sheet, err := svc.Create(context.Background(), owner, spreadsheet.CreateSpreadsheetRequest{Name: "Cols"})
	require.NoError(t, err)

	col, err := svc.CreateColumn(context.Background(), owner, sheet.ID, spreadsheet.CreateColumnRequest{
		Name: "Price",
		Type: spreadsheet.ColumnTypeCurrency,
	})
	require.NoError(t, err)

	required := true
	updated, err := svc.UpdateColumn(context.Background(), owner, sheet.ID, col.ID, spreadsheet.UpdateColumnRequest{
		Name:     "Unit price",
		Required: &required,
	})
	require.NoError(t, err)
	assert.Equal(t, "Unit price", updated.Name)
	assert.True(t, updated.Required)
	assert.Equal(t, spreadsheet.ColumnTypeCurrency, updated.Type)

	require.NoError(t, svc.DeleteColumn(context.Background(), owner, sheet.ID, col.ID))

	assert.Equal(t, []realtime.MessageType{
		realtime.TypeColumnCreated,
		realtime.TypeColumnUpdated,
		realtime.TypeColumnDeleted,
	}, broadcaster.types())
}

func TestConcurrentRowUpdatesLastWriteWins(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()

	sheet, err := svc.Create(context.Background(), owner, spreadsheet.CreateSpreadsheetRequest{Name: "Race"})
	require.NoError(t, err)
	row, err := svc.CreateRow(context.Background(), owner, sheet.ID, spreadsheet.CreateRowRequest{
		Data: json.RawMessage(`{"v": 0}`),
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			data, _ := json.Marshal(map[string]int{"v": n})
			_, err := svc.UpdateRow(context.Background(), owner, sheet.ID, row.ID, spreadsheet.UpdateRowRequest{Data: data})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	details, err := svc.Get(context.Background(), owner, sheet.ID)
	require.NoError(t, err)
	require.Len(t, details.Rows, 1)

	var final map[string]int
	require.NoError(t, json.Unmarshal(details.Rows[0].Data, &final))
	assert.Contains(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, final["v"])
	assert.Equal(t, owner, details.Rows[0].UpdatedBy)
}

func TestCanAccessForHandshake(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()
	stranger := uuid.New()

	sheet, err := svc.Create(context.Background(), owner, spreadsheet.CreateSpreadsheetRequest{Name: "Gate"})
	require.NoError(t, err)

	assert.NoError(t, svc.CanAccess(context.Background(), owner, sheet.ID))
	assert.ErrorIs(t, svc.CanAccess(context.Background(), stranger, sheet.ID), spreadsheet.ErrAccessDenied)
	assert.ErrorIs(t, svc.CanAccess(context.Background(), owner, uuid.New()), spreadsheet.ErrSpreadsheetNotFound)
}
