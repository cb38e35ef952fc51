package scheduling

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/flotillaproject/flotilla/pkg/api"
)

// DeploymentExecutor runs an admitted deployment to completion. An error
// return is an execution fault routed through the retry policy, except for
// context cancellation, which indicates a forced stop.
type DeploymentExecutor interface {
	Execute(ctx context.Context, deployment *api.Deployment) error
}

// SimulatedExecutor stands in for the call into a real workload runtime: it
// sleeps through a fixed number of steps, honouring cancellation between
// steps.
type SimulatedExecutor struct {
	Steps        int
	StepInterval time.Duration
}

func NewSimulatedExecutor(steps int, stepInterval time.Duration) *SimulatedExecutor {
	return &SimulatedExecutor{Steps: steps, StepInterval: stepInterval}
}

func (e *SimulatedExecutor) Execute(ctx context.Context, deployment *api.Deployment) error {
	for i := 0; i < e.Steps; i++ {
		log.Debugf("deploying %s... %d/%d", deployment.Id, i+1, e.Steps)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.StepInterval):
		}
	}
	return nil
}
