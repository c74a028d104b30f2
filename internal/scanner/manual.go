package scanner

import (
	"context"
	"fmt"

	"appdeck/internal/catalog"
)

// ManualSource exposes the durable override maps.
type ManualSource interface {
	CustomPaths(ctx context.Context) (map[string]string, error)
	Portables(ctx context.Context) ([]catalog.Portable, error)
}

// ManualRecords is the straight load of the override store.
type ManualRecords struct {
	Overrides map[string]string
	Portables []catalog.Portable
}

// LoadManual reads both override maps. Either failing fails the load so the
// caller can degrade to an empty manual source.
func LoadManual(ctx context.Context, src ManualSource) (ManualRecords, error) {
	if src == nil {
		return ManualRecords{}, nil
	}
	overrides, err := src.CustomPaths(ctx)
	if err != nil {
		return ManualRecords{}, fmt.Errorf("load custom paths: %w", err)
	}
	portables, err := src.Portables(ctx)
	if err != nil {
		return ManualRecords{}, fmt.Errorf("load portable apps: %w", err)
	}
	return ManualRecords{Overrides: overrides, Portables: portables}, nil
}
