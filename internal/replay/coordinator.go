package replay

import (
	"context"
	"fmt"

	"github.com/banshee-data/groundstation/internal/backend"
	"github.com/banshee-data/groundstation/internal/telemetry"
)

// Source is the backend surface replay analysis needs.
type Source interface {
	ReplayHeaders(ctx context.Context) (backend.ReplayHeaders, error)
	ReplaySeries(ctx context.Context, req backend.SeriesRequest) (backend.SeriesResponse, error)
}

// Coordinator owns the system mode, replay status and analysis sub-state.
// It is not safe for concurrent use.
type Coordinator struct {
	mode     Mode
	status   Status
	analysis Analysis
}

func NewCoordinator() *Coordinator {
	return &Coordinator{mode: Realtime, status: NewStatus()}
}

func (c *Coordinator) Mode() Mode { return c.mode }

func (c *Coordinator) Status() Status { return c.status }

// Analysis returns a copy of the analysis sub-state.
func (c *Coordinator) Analysis() Analysis { return c.analysis.clone() }

// SetMode records the system mode and returns the previous one. Unknown mode
// strings are rejected.
func (c *Coordinator) SetMode(m Mode) (Mode, error) {
	if m != Realtime && m != Replay {
		return c.mode, fmt.Errorf("unknown system mode %q", m)
	}
	prev := c.mode
	c.mode = m
	return prev, nil
}

// UpdateStatus merges a partial status.
func (c *Coordinator) UpdateStatus(u telemetry.ReplayStatusUpdate) Status {
	c.status = MergeStatus(c.status, u)
	return c.status
}

// Acknowledge applies a control acknowledgement.
func (c *Coordinator) Acknowledge(r telemetry.ReplayResponse) (Status, error) {
	next, err := ApplyResponse(c.status, r)
	c.status = next
	return next, err
}

// FetchCatalog reads the variable catalog from src. It touches no
// coordinator state, so callers can run it without holding their lock and
// then hand the result to SetCatalog.
func FetchCatalog(ctx context.Context, src Source) (backend.ReplayHeaders, error) {
	h, err := src.ReplayHeaders(ctx)
	if err != nil {
		return backend.ReplayHeaders{}, fmt.Errorf("load replay catalog: %w", err)
	}
	return h, nil
}

// SetCatalog replaces the catalog with h, partitioned into categories.
func (c *Coordinator) SetCatalog(h backend.ReplayHeaders) Analysis {
	c.analysis = Analysis{
		File:              h.File,
		Variables:         append([]string(nil), h.AllVariables...),
		Groups:            Partition(h.AllVariables),
		BackendCategories: h.Categories,
	}
	return c.Analysis()
}

// SeriesRequest validates a selection and applies the default point budget.
func SeriesRequest(variables []string, maxPoints int) (backend.SeriesRequest, error) {
	if len(variables) == 0 {
		return backend.SeriesRequest{}, fmt.Errorf("load replay series: no variables selected")
	}
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	return backend.SeriesRequest{Variables: variables, MaxPoints: maxPoints}, nil
}

// FetchSeries validates the selection and reads its sampled series from
// src. Like FetchCatalog it leaves the coordinator alone; pass the response
// to SetSeries.
func FetchSeries(ctx context.Context, src Source, variables []string, maxPoints int) (backend.SeriesResponse, error) {
	req, err := SeriesRequest(variables, maxPoints)
	if err != nil {
		return backend.SeriesResponse{}, err
	}
	resp, err := src.ReplaySeries(ctx, req)
	if err != nil {
		return backend.SeriesResponse{}, fmt.Errorf("load replay series: %w", err)
	}
	return resp, nil
}

// SetSeries stores a series response as the current selection.
func (c *Coordinator) SetSeries(variables []string, resp backend.SeriesResponse) SeriesSet {
	set := newSeriesSet(variables, resp)
	c.analysis.Selected = append([]string(nil), variables...)
	c.analysis.Series = set
	return set
}
