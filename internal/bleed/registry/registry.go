// Package registry is the read model over embassy and structure records. It
// orients embassies into channels and recomputes effectiveness on demand;
// nothing here mutates state.
package registry

import (
	"context"
	"errors"
	"fmt"

	"bleedengine/internal/bleed/domain"
	"bleedengine/internal/bleed/storage"
)

type registryStore interface {
	storage.EmbassyStore
	storage.WorldStore
}

// Registry resolves the active channels reachable from a world.
type Registry struct {
	store registryStore
}

// New creates a registry over embassy and world storage.
func New(store registryStore) *Registry {
	return &Registry{store: store}
}

// ChannelsFrom returns every active embassy touching the given world,
// oriented toward the other endpoint, with effectiveness and destination
// zone stability resolved. Suspended and severed embassies never appear.
//
// Effectiveness is recomputed on every call: structure condition can change
// between propagation passes and must never be cached across them.
func (r *Registry) ChannelsFrom(ctx context.Context, worldID string) ([]domain.Channel, error) {
	if r == nil || r.store == nil {
		return nil, fmt.Errorf("registry store is not configured")
	}

	embassies, err := r.store.ListEmbassiesForWorld(ctx, worldID)
	if err != nil {
		return nil, fmt.Errorf("list embassies for %s: %w", worldID, err)
	}

	var channels []domain.Channel
	for _, embassy := range embassies {
		if embassy.Status != domain.EmbassyActive {
			continue
		}
		channel, err := r.orient(ctx, embassy, worldID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// The far structure or zone was deleted mid-flight; the
				// channel cannot carry bleed until repaired.
				continue
			}
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, nil
}

// Effectiveness recomputes the [0,1] carrying capacity of an embassy as seen
// from the given source world. Suspended and severed embassies score zero.
func (r *Registry) Effectiveness(ctx context.Context, embassy domain.Embassy, fromWorld string) (float64, error) {
	if r == nil || r.store == nil {
		return 0, fmt.Errorf("registry store is not configured")
	}
	if embassy.Status != domain.EmbassyActive {
		return 0, nil
	}
	structureID, ok := embassy.FarStructure(fromWorld)
	if !ok {
		return 0, fmt.Errorf("embassy %s does not touch world %s", embassy.ID, fromWorld)
	}
	structure, err := r.store.GetStructure(ctx, structureID)
	if err != nil {
		return 0, err
	}
	return structure.Effectiveness(), nil
}

func (r *Registry) orient(ctx context.Context, embassy domain.Embassy, fromWorld string) (domain.Channel, error) {
	toWorld, ok := embassy.OtherWorld(fromWorld)
	if !ok {
		return domain.Channel{}, fmt.Errorf("embassy %s does not touch world %s", embassy.ID, fromWorld)
	}
	structureID, _ := embassy.FarStructure(fromWorld)
	structure, err := r.store.GetStructure(ctx, structureID)
	if err != nil {
		return domain.Channel{}, err
	}

	channel := domain.Channel{
		Embassy:       embassy,
		FromWorld:     fromWorld,
		ToWorld:       toWorld,
		ToZoneID:      structure.ZoneID,
		Effectiveness: structure.Effectiveness(),
	}
	zone, err := r.store.GetZone(ctx, structure.ZoneID)
	if err != nil {
		return domain.Channel{}, err
	}
	channel.ToZoneStability = zone.Stability
	return channel, nil
}
