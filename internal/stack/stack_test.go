package stack

import (
	"context"
	"errors"
	"testing"

	"github.com/alokkulkarni/agentOchestrator-sub002/internal/config"
	"github.com/alokkulkarni/agentOchestrator-sub002/pkg/api"
)

type fakeLister struct {
	rows []ServiceState
	err  error
}

func (f *fakeLister) PS(ctx context.Context) ([]ServiceState, error) { return f.rows, f.err }

type fakeProber struct {
	docs map[string]api.HealthDocument
	errs map[string]error
}

func (f *fakeProber) Probe(ctx context.Context, url string) (api.HealthDocument, error) {
	if err, ok := f.errs[url]; ok {
		return api.HealthDocument{}, err
	}
	return f.docs[url], nil
}

func TestRunContainerStates(t *testing.T) {
	c := &Checker{
		Services: []config.Service{
			{Name: "gateway"},
			{Name: "agent", ComposeName: "agent-svc"},
			{Name: "ghost"},
		},
		Lister: &fakeLister{rows: []ServiceState{
			{Service: "gateway", State: "running"},
			{Service: "agent-svc", State: "restarting (1)"},
		}},
	}
	checks := c.Run(context.Background())
	if len(checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(checks))
	}
	if checks[0].Status != api.StatusHealthy {
		t.Errorf("gateway = %s", checks[0].Status)
	}
	if checks[1].Status != api.StatusDegraded {
		t.Errorf("agent = %s", checks[1].Status)
	}
	if checks[2].Status != api.StatusUnknown || checks[2].Message != "no container" {
		t.Errorf("ghost = %+v", checks[2])
	}
}

func TestRunProbeWorsens(t *testing.T) {
	c := &Checker{
		Services: []config.Service{
			{Name: "gateway", HealthURL: "http://g/health"},
		},
		Lister: &fakeLister{rows: []ServiceState{{Service: "gateway", State: "running"}}},
		Prober: &fakeProber{docs: map[string]api.HealthDocument{
			"http://g/health": {Status: api.StatusDegraded, Checks: []api.Check{
				{Name: "db", Status: api.StatusDegraded},
				{Name: "cache", Status: api.StatusHealthy},
			}},
		}},
	}
	checks := c.Run(context.Background())
	if checks[0].Status != api.StatusDegraded {
		t.Fatalf("status = %s", checks[0].Status)
	}
	if checks[0].Message != "degraded: db" {
		t.Errorf("message = %q", checks[0].Message)
	}
}

func TestRunProbeNeverImproves(t *testing.T) {
	c := &Checker{
		Services: []config.Service{
			{Name: "gateway", HealthURL: "http://g/health"},
		},
		Lister: &fakeLister{rows: []ServiceState{{Service: "gateway", State: "exited (1)"}}},
		Prober: &fakeProber{docs: map[string]api.HealthDocument{
			"http://g/health": {Status: api.StatusHealthy},
		}},
	}
	checks := c.Run(context.Background())
	if checks[0].Status != api.StatusUnhealthy {
		t.Fatalf("exited container must stay unhealthy, got %s", checks[0].Status)
	}
}

func TestRunProbeError(t *testing.T) {
	c := &Checker{
		Services: []config.Service{
			{Name: "gateway", HealthURL: "http://g/health"},
		},
		Lister: &fakeLister{rows: []ServiceState{{Service: "gateway", State: "running"}}},
		Prober: &fakeProber{errs: map[string]error{"http://g/health": errors.New("refused")}},
	}
	checks := c.Run(context.Background())
	if checks[0].Status != api.StatusUnhealthy {
		t.Fatalf("status = %s", checks[0].Status)
	}
}

func TestRollup(t *testing.T) {
	cases := []struct {
		checks []api.Check
		want   api.Status
	}{
		{nil, api.StatusHealthy},
		{[]api.Check{{Status: api.StatusHealthy}}, api.StatusHealthy},
		{[]api.Check{{Status: api.StatusHealthy}, {Status: api.StatusDegraded}}, api.StatusDegraded},
		{[]api.Check{{Status: api.StatusDegraded}, {Status: api.StatusUnhealthy}}, api.StatusUnhealthy},
		{[]api.Check{{Status: api.StatusUnknown}}, api.StatusDegraded},
	}
	for i, tc := range cases {
		if got := api.Rollup(tc.checks); got != tc.want {
			t.Errorf("case %d: rollup = %s, want %s", i, got, tc.want)
		}
	}
}
