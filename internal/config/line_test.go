package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/line-seat-reservation/internal/model"
)

func TestLoadLineDefault(t *testing.T) {
	line, err := LoadLine("")
	require.NoError(t, err)

	assert.Equal(t, []model.Stop{"A", "B", "C", "D"}, line.StopList())

	seats := line.SeatPool()
	require.Len(t, seats, 40)
	assert.Equal(t, model.Seat{ID: 1, Number: "1A"}, seats[0])
	assert.Equal(t, model.Seat{ID: 40, Number: "40A"}, seats[39])

	routes := line.RouteList()
	assert.Len(t, routes, 12, "every directed pair of four stops is priced")
	assert.True(t, decimal.RequireFromString("50.00").Equal(routes[0].Price))
}

func TestParseLineRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"single stop", "stops: [A]\nfleet: {seats: 1}\nroutes: [{origin: A, destination: B, price: '1'}]"},
		{"duplicate stops", "stops: [A, A]\nfleet: {seats: 1}\nroutes: [{origin: A, destination: A, price: '1'}]"},
		{"no seats", "stops: [A, B]\nfleet: {seats: 0}\nroutes: [{origin: A, destination: B, price: '1'}]"},
		{"same origin and destination", "stops: [A, B]\nfleet: {seats: 2}\nroutes: [{origin: A, destination: A, price: '1'}]"},
		{"unknown stop", "stops: [A, B]\nfleet: {seats: 2}\nroutes: [{origin: A, destination: Z, price: '1'}]"},
		{"non numeric price", "stops: [A, B]\nfleet: {seats: 2}\nroutes: [{origin: A, destination: B, price: 'cheap'}]"},
		{"zero price", "stops: [A, B]\nfleet: {seats: 2}\nroutes: [{origin: A, destination: B, price: '0'}]"},
		{"duplicate route", "stops: [A, B]\nfleet: {seats: 2}\nroutes: [{origin: A, destination: B, price: '1'}, {origin: A, destination: B, price: '2'}]"},
		{"not yaml", "stops: [A, B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadLineFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "line.yml")
	data := "stops: [X, Y, Z]\nfleet: {seats: 3, seat_suffix: B}\nroutes:\n  - {origin: Z, destination: X, price: '12.34'}\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	line, err := LoadLine(path)
	require.NoError(t, err)

	assert.Equal(t, "3B", line.SeatPool()[2].Number)
	routes := line.RouteList()
	require.Len(t, routes, 1)
	assert.Equal(t, model.Stop("Z"), routes[0].Origin)
	assert.Equal(t, "12.34", routes[0].Price.StringFixed(2))
}

func TestLoadLineMissingFile(t *testing.T) {
	_, err := LoadLine(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}
