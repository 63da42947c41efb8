package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/line-seat-reservation/internal/model"
)

func sampleReservation() model.Reservation {
	return model.Reservation{
		Number:         "RES-20260101120000-00000001",
		Origin:         "A",
		Destination:    "C",
		PassengerCount: 2,
		TotalPrice:     decimal.RequireFromString("200.00"),
		Seats:          []model.Seat{{ID: 1, Number: "1A"}, {ID: 2, Number: "2A"}},
		CreatedAt:      time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewReservationConfirmed(t *testing.T) {
	ev := NewReservationConfirmed(sampleReservation())
	assert.Equal(t, []string{"1A", "2A"}, ev.SeatNumbers)
	assert.Equal(t, "2026-01-01T12:00:00Z", ev.ConfirmedAt)
	assert.Equal(t, model.Stop("A"), ev.Origin)
}

func TestHandleMessageAppendsLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reservations.log")
	body, err := json.Marshal(NewReservationConfirmed(sampleReservation()))
	require.NoError(t, err)

	require.NoError(t, handleMessage(body, path))
	require.NoError(t, handleMessage(body, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "[2026-01-01T12:00:00Z] Reservation confirmed | number=RES-20260101120000-00000001 | A->C | passengers=2 | total=200.00 | seats=[1A,2A]\n"
	assert.Equal(t, want+want, string(data))
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reservations.log")
	assert.Error(t, handleMessage([]byte("{not json"), path))
	assert.Error(t, handleMessage([]byte(`{}`), path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
