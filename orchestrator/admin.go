package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/fedquery/gateway/integration"
	"github.com/fedquery/gateway/types"
)

// ServiceStatus is one registered service's configuration plus its
// current health, returned by ListServices and RefreshHealth.
type ServiceStatus struct {
	Config types.ServiceConfig
	Health integration.Health
}

// ListServices returns every registered service's configuration and
// last-known health.
func (o *Orchestrator) ListServices() []ServiceStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]ServiceStatus, 0, len(o.services))
	for _, svc := range o.services {
		out = append(out, ServiceStatus{Config: svc.cfg, Health: svc.envelope.HealthCheck(context.Background())})
	}
	return out
}

// SetEnabled toggles a single service's enabled flag. Returns an error
// if the service isn't registered.
func (o *Orchestrator) SetEnabled(source types.Source, enabled bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	svc, ok := o.services[source]
	if !ok {
		return types.NewError(types.ErrInvalidInput, "unknown service").WithSource(source)
	}
	svc.cfg.Enabled = enabled
	return nil
}

// RefreshHealth runs HealthCheck against every registered service in
// parallel and returns the fresh snapshot.
func (o *Orchestrator) RefreshHealth(ctx context.Context) []ServiceStatus {
	o.mu.RLock()
	snapshot := make([]*service, 0, len(o.services))
	for _, svc := range o.services {
		snapshot = append(snapshot, svc)
	}
	o.mu.RUnlock()

	out := make([]ServiceStatus, len(snapshot))
	g, gctx := errgroup.WithContext(ctx)
	for i, svc := range snapshot {
		i, svc := i, svc
		g.Go(func() error {
			out[i] = ServiceStatus{Config: svc.cfg, Health: svc.envelope.HealthCheck(gctx)}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
