package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/line-seat-reservation/internal/model"
)

//go:embed line.yml
var defaultLine []byte

// LineConfig describes the line served by the vehicle: the stops in line
// order, the seat pool and the priced routes.
type LineConfig struct {
	Stops  []string      `yaml:"stops" validate:"min=2,unique,dive,required"`
	Fleet  FleetConfig   `yaml:"fleet" validate:"required"`
	Routes []RouteConfig `yaml:"routes" validate:"min=1,dive"`
}

// FleetConfig sizes the seat pool.  Seats are numbered 1..Seats followed
// by SeatSuffix ("1A", "2A", ...).
type FleetConfig struct {
	Seats      int    `yaml:"seats" validate:"gt=0,lte=1000"`
	SeatSuffix string `yaml:"seat_suffix" validate:"max=4"`
}

// RouteConfig is one priced directed pair.  Price is kept as text so that
// it is parsed exactly.
type RouteConfig struct {
	Origin      string `yaml:"origin" validate:"required"`
	Destination string `yaml:"destination" validate:"required,nefield=Origin"`
	Price       string `yaml:"price" validate:"required,numeric"`
}

// LoadLine reads the line from path, or the embedded default line when
// path is empty.
func LoadLine(path string) (*LineConfig, error) {
	if path == "" {
		return ParseLine(defaultLine)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read line config: %w", err)
	}
	return ParseLine(data)
}

// ParseLine decodes and validates a YAML line description.
func ParseLine(data []byte) (*LineConfig, error) {
	var cfg LineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse line config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid line config: %w", err)
	}
	known := make(map[string]bool, len(cfg.Stops))
	for _, s := range cfg.Stops {
		known[s] = true
	}
	seen := make(map[string]bool, len(cfg.Routes))
	for i, r := range cfg.Routes {
		if !known[r.Origin] || !known[r.Destination] {
			return nil, fmt.Errorf("invalid line config: route %d (%s->%s) uses an unknown stop", i, r.Origin, r.Destination)
		}
		key := r.Origin + "->" + r.Destination
		if seen[key] {
			return nil, fmt.Errorf("invalid line config: route %s listed twice", key)
		}
		seen[key] = true
		p, err := decimal.NewFromString(r.Price)
		if err != nil || !p.IsPositive() {
			return nil, fmt.Errorf("invalid line config: route %s price %q must be a positive decimal", key, r.Price)
		}
	}
	return &cfg, nil
}

// StopList returns the stops in line order.
func (c *LineConfig) StopList() []model.Stop {
	out := make([]model.Stop, 0, len(c.Stops))
	for _, s := range c.Stops {
		out = append(out, model.Stop(s))
	}
	return out
}

// SeatPool returns the seats to provision, ordered by ID.
func (c *LineConfig) SeatPool() []model.Seat {
	seats := make([]model.Seat, 0, c.Fleet.Seats)
	for i := 1; i <= c.Fleet.Seats; i++ {
		seats = append(seats, model.Seat{ID: uint64(i), Number: strconv.Itoa(i) + c.Fleet.SeatSuffix})
	}
	return seats
}

// RouteList returns the configured routes.  Prices were validated by
// ParseLine.
func (c *LineConfig) RouteList() []model.Route {
	out := make([]model.Route, 0, len(c.Routes))
	for i, r := range c.Routes {
		out = append(out, model.Route{
			ID:          uint64(i + 1),
			Origin:      model.Stop(r.Origin),
			Destination: model.Stop(r.Destination),
			Price:       decimal.RequireFromString(r.Price),
		})
	}
	return out
}
