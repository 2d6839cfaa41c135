package stack

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alokkulkarni/agentOchestrator-sub002/internal/config"
	"github.com/alokkulkarni/agentOchestrator-sub002/pkg/api"
)

// ComposeLister reports container states, normally backed by compose ps.
type ComposeLister interface {
	PS(ctx context.Context) ([]ServiceState, error)
}

// ServiceState mirrors one row of compose ps output.
type ServiceState struct {
	Service string
	State   string
}

// HealthProber fetches a health document from a service's health URL.
type HealthProber interface {
	Probe(ctx context.Context, healthURL string) (api.HealthDocument, error)
}

// Checker aggregates container state and HTTP health into per-service checks.
type Checker struct {
	Services []config.Service
	Lister   ComposeLister
	Prober   HealthProber
}

// Run produces one check per configured service, in configuration order.
// Container state decides the baseline; an HTTP probe, when the service has a
// health URL, can only worsen it.
func (c *Checker) Run(ctx context.Context) []api.Check {
	states := map[string]string{}
	if c.Lister != nil {
		if rows, err := c.Lister.PS(ctx); err == nil {
			for _, row := range rows {
				states[row.Service] = row.State
			}
		}
	}

	checks := make([]api.Check, 0, len(c.Services))
	for _, svc := range c.Services {
		check := containerCheck(svc, states)
		if svc.HealthURL != "" && c.Prober != nil {
			check = mergeProbe(ctx, c.Prober, svc, check)
		}
		check.LastChecked = time.Now()
		checks = append(checks, check)
	}
	return checks
}

func containerCheck(svc config.Service, states map[string]string) api.Check {
	state, ok := states[svc.ComposeService()]
	if !ok {
		return api.Check{
			Name:    svc.Name,
			Status:  api.StatusUnknown,
			Message: "no container",
		}
	}
	status := api.StatusUnhealthy
	switch {
	case strings.HasPrefix(state, "running"):
		status = api.StatusHealthy
	case strings.HasPrefix(state, "restarting"), strings.HasPrefix(state, "created"):
		status = api.StatusDegraded
	}
	return api.Check{Name: svc.Name, Status: status, Message: state}
}

func mergeProbe(ctx context.Context, prober HealthProber, svc config.Service, base api.Check) api.Check {
	start := time.Now()
	doc, err := prober.Probe(ctx, svc.HealthURL)
	base.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		base.Status = api.StatusUnhealthy
		base.Message = fmt.Sprintf("health probe: %v", err)
		return base
	}
	if worse(doc.Status, base.Status) {
		base.Status = doc.Status
	}
	if base.Message == "" || base.Status != api.StatusHealthy {
		base.Message = probeMessage(doc)
	}
	return base
}

func probeMessage(doc api.HealthDocument) string {
	if len(doc.Checks) == 0 {
		return string(doc.Status)
	}
	var failing []string
	for _, c := range doc.Checks {
		if c.Status != api.StatusHealthy {
			failing = append(failing, c.Name)
		}
	}
	if len(failing) == 0 {
		return string(doc.Status)
	}
	return fmt.Sprintf("%s: %s", doc.Status, strings.Join(failing, ","))
}

var severity = map[api.Status]int{
	api.StatusHealthy:   0,
	api.StatusUnknown:   1,
	api.StatusDegraded:  2,
	api.StatusUnhealthy: 3,
}

func worse(a, b api.Status) bool { return severity[a] > severity[b] }
