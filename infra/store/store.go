// Package store records one summary per solve run. The model itself is never
// persisted.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/rotation/core/milp"
)

// DayRecord is the stored attendance of one day.
type DayRecord struct {
	Date     string `json:"date"`
	Week     string `json:"week"`
	Total    int    `json:"total"`
	GroupA   int    `json:"group_a"`
	Children []int  `json:"children"`
}

// RunRecord summarizes one solve run.
type RunRecord struct {
	ID                string      `json:"id"`
	Time              time.Time   `json:"time"`
	Backend           string      `json:"backend"`
	Status            milp.Status `json:"status"`
	Objective         float64     `json:"objective"`
	WeeklyInteraction float64     `json:"weekly_interaction"`
	GenderBalance     float64     `json:"gender_balance"`
	MinAttendance     float64     `json:"min_attendance"`
	Vars              int         `json:"vars"`
	Constraints       int         `json:"constraints"`
	Attempts          int         `json:"attempts"`
	DurationMS        int64       `json:"duration_ms"`
	Error             string      `json:"error,omitempty"`
	Days              []DayRecord `json:"days,omitempty"`
}

// RunQuery filters stored runs. Zero fields match everything.
type RunQuery struct {
	Since   time.Time
	Until   time.Time
	Status  milp.Status
	Backend string
	Limit   int
}

func (q RunQuery) match(r RunRecord) bool {
	if !q.Since.IsZero() && r.Time.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && r.Time.After(q.Until) {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.Backend != "" && r.Backend != q.Backend {
		return false
	}
	return true
}

// RunStore persists run records.
type RunStore interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q RunQuery) ([]RunRecord, error)
	Close() error
}

// NewRunID returns a random run identifier.
func NewRunID() string { return uuid.NewString() }

// Config selects the store backend.
type Config struct {
	Type string `json:"type" validate:"omitempty,oneof=none jsonl sqlite"`
	Path string `json:"path"`
}

// SetDefaults disables the store unless configured.
func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = "none"
	}
}

// Open returns the store described by cfg.
func Open(cfg Config) (RunStore, error) {
	switch cfg.Type {
	case "", "none":
		return NopStore{}, nil
	case "jsonl":
		if cfg.Path == "" {
			return nil, fmt.Errorf("store: jsonl requires a path")
		}
		return NewJSONLStore(cfg.Path)
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("store: sqlite requires a path")
		}
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("store: unknown type %q", cfg.Type)
	}
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, RunRecord) error { return nil }
func (NopStore) Query(context.Context, RunQuery) ([]RunRecord, error) {
	return nil, nil
}
func (NopStore) Close() error { return nil }
