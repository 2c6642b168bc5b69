package sync

import (
	"context"

	"breadshare-client/internal/models"
)

// LocationProvider supplies positions for nearby search and the location
// publisher. Current blocks until a position is known or ctx ends; Watch
// streams updates until ctx ends.
type LocationProvider interface {
	Current(ctx context.Context) (models.Location, error)
	Watch(ctx context.Context) (<-chan models.Location, error)
}

// StaticProvider serves one fixed position, typically from config.
type StaticProvider struct {
	Position models.Location
}

func (p StaticProvider) Current(ctx context.Context) (models.Location, error) {
	return p.Position, nil
}

// Watch emits the fixed position once and holds the channel open until ctx
// ends.
func (p StaticProvider) Watch(ctx context.Context) (<-chan models.Location, error) {
	out := make(chan models.Location, 1)
	out <- p.Position
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}

// LocationPublisher forwards watched positions to the backend over the
// realtime connection.
type LocationPublisher struct {
	rt       Realtime
	provider LocationProvider
}

// NewLocationPublisher wires a provider to the realtime connection.
func NewLocationPublisher(rt Realtime, provider LocationProvider) *LocationPublisher {
	return &LocationPublisher{rt: rt, provider: provider}
}

// Run forwards position updates until ctx ends or the watch fails.
func (p *LocationPublisher) Run(ctx context.Context) error {
	updates, err := p.provider.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case position, ok := <-updates:
			if !ok {
				return nil
			}
			p.rt.Emit(models.EventLocation, position)
		}
	}
}

var _ LocationProvider = StaticProvider{}
