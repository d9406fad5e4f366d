package ports

import (
	"context"

	"github.com/aretw0/geosolve/pkg/domain"
)

// Solver sends a request to the remote solver and returns the parsed response.
// Failures are reported as *domain.RemoteComputationError.
type Solver interface {
	Solve(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error)
}

// BusyIndicator is toggled around solver round trips.
type BusyIndicator interface {
	SetBusy(busy bool)
}

// BusyFunc adapts a function to BusyIndicator.
type BusyFunc func(busy bool)

// SetBusy implements BusyIndicator.
func (f BusyFunc) SetBusy(busy bool) { f(busy) }
