package store

import (
	"context"

	"github.com/adsplit/adsplit/internal/report"
)

// Store defines the interface for run storage operations
type Store interface {
	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context) ([]*Run, error)
	SetDocument(ctx context.Context, id string, doc *report.Document) error
	DeleteRun(ctx context.Context, id string) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}
