package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/flotillaproject/flotilla/internal/common/flotillaerrors"
	"github.com/flotillaproject/flotilla/internal/common/util"
	"github.com/flotillaproject/flotilla/internal/flotilla/dispatch"
	"github.com/flotillaproject/flotilla/internal/flotilla/repository"
	"github.com/flotillaproject/flotilla/pkg/api"
)

// ClusterNotFoundReason is recorded on deployments whose target cluster
// cannot be resolved. This path is terminal and does not consume a retry
// attempt.
const ClusterNotFoundReason = "Cluster not found or no resources available"

// Orchestrator drives one deployment-processing attempt end to end: admission
// check, preemption, execution and the retry policy. One invocation runs per
// dispatched task, on whichever worker claimed it.
//
// Accounting is read fresh from the store on each invocation with no lock
// spanning the read-check-write sequence, so two concurrent admissions
// against one cluster can both see capacity as free and over-subscribe it.
// Usage can go negative on the available side; admission tolerates that.
type Orchestrator struct {
	clusterRepository    repository.ClusterRepository
	deploymentRepository repository.DeploymentRepository
	accountant           *ResourceAccountant
	preemptionExecutor   *PreemptionExecutor
	executor             DeploymentExecutor
	dispatcher           dispatch.Dispatcher
	sweeper              *RequeueSweeper
	retryBackoff         time.Duration
	clock                util.Clock
}

func NewOrchestrator(
	clusterRepository repository.ClusterRepository,
	deploymentRepository repository.DeploymentRepository,
	accountant *ResourceAccountant,
	preemptionExecutor *PreemptionExecutor,
	executor DeploymentExecutor,
	dispatcher dispatch.Dispatcher,
	sweeper *RequeueSweeper,
	retryBackoff time.Duration,
) *Orchestrator {
	return &Orchestrator{
		clusterRepository:    clusterRepository,
		deploymentRepository: deploymentRepository,
		accountant:           accountant,
		preemptionExecutor:   preemptionExecutor,
		executor:             executor,
		dispatcher:           dispatcher,
		sweeper:              sweeper,
		retryBackoff:         retryBackoff,
		clock:                &util.DefaultClock{},
	}
}

// WithClock overrides the orchestrator's clock, for tests.
func (o *Orchestrator) WithClock(clock util.Clock) *Orchestrator {
	o.clock = clock
	return o
}

// ProcessDeployment handles one dispatched task.
func (o *Orchestrator) ProcessDeployment(ctx context.Context, task *dispatch.Task) error {
	deployment, err := o.deploymentRepository.GetDeployment(task.DeploymentId)
	if err != nil {
		if flotillaerrors.IsNotFound(err) {
			// nothing to update; deliberately not escalated
			log.Debugf("deployment %s not found, skipping", task.DeploymentId)
			return nil
		}
		return err
	}

	// Dispatch is at-least-once, so a duplicate task can arrive for a
	// deployment that is already running or finished; drop it here.
	if deployment.Status == api.DeploymentRunning || deployment.Status == api.DeploymentCompleted {
		log.Debugf("deployment %s already %s, skipping duplicate dispatch", deployment.Id, deployment.Status)
		return nil
	}

	reports, err := o.accountant.GetClusterUsage()
	if err != nil {
		return err
	}
	report := reports[deployment.ClusterId]
	if report == nil {
		deployment.Status = api.DeploymentFailed
		deployment.FailureReason = ClusterNotFoundReason
		failedCounter.Inc()
		return o.deploymentRepository.UpdateDeployment(deployment)
	}

	check := CheckDeploymentResources(deployment, report)
	if !check.HasResources {
		admitted, err := o.tryPreemption(deployment, check)
		if err != nil {
			return err
		}
		if !admitted {
			log.Infof("not enough resources even after potential preemption, queueing %s", deployment.Id)
			deployment.Status = api.DeploymentQueued
			queuedCounter.Inc()
			return o.deploymentRepository.UpdateDeployment(deployment)
		}
	} else {
		log.Infof("sufficient resources available, deploying %s", deployment.Id)
	}

	now := o.clock.Now()
	deployment.Status = api.DeploymentRunning
	deployment.StartedAt = &now
	if err := o.deploymentRepository.UpdateDeployment(deployment); err != nil {
		return err
	}
	admittedCounter.Inc()

	return o.executeDeployment(ctx, deployment)
}

// tryPreemption plans and executes preemption for a deployment that did not
// fit. Returns true if enough capacity was freed to admit it.
func (o *Orchestrator) tryPreemption(deployment *api.Deployment, check AdmissionCheck) (bool, error) {
	deployments, err := o.deploymentRepository.GetClusterDeployments(deployment.ClusterId)
	if err != nil {
		return false, err
	}

	victims, ok := PlanPreemption(deployment, check.Available, deployments)
	if !ok {
		return false, nil
	}
	if err := o.preemptionExecutor.PreemptDeployments(victims); err != nil {
		return false, err
	}
	return true, nil
}

func (o *Orchestrator) executeDeployment(ctx context.Context, deployment *api.Deployment) error {
	err := o.executor.Execute(ctx, deployment)
	if err == nil {
		now := o.clock.Now()
		deployment.Status = api.DeploymentCompleted
		deployment.CompletedAt = &now
		if err := o.deploymentRepository.UpdateDeployment(deployment); err != nil {
			return err
		}
		completedCounter.Inc()
		log.Infof("deployment %s completed", deployment.Id)

		// whatever this run freed up may let queued work in; fire and forget
		go o.sweeper.Sweep()
		return nil
	}

	if errors.Is(err, context.Canceled) {
		// forced stop: the preemption executor owns the status transition,
		// so this invocation ends without touching the record
		log.Infof("deployment %s stopped by preemption", deployment.Id)
		return nil
	}

	return o.handleExecutionFault(deployment, err)
}

// handleExecutionFault applies the bounded-retry policy: every fault marks
// the deployment failed and consumes an attempt; while attempts remain, a
// fresh invocation is scheduled after a fixed backoff under a derived task id
// that a preemption signal for the deployment id cannot reach.
func (o *Orchestrator) handleExecutionFault(deployment *api.Deployment, faultErr error) error {
	deployment.Status = api.DeploymentFailed
	deployment.FailureReason = faultErr.Error()
	deployment.Attempts++
	if err := o.deploymentRepository.UpdateDeployment(deployment); err != nil {
		return err
	}

	if deployment.Attempts < deployment.MaxAttempts {
		log.Infof("deployment %s failed, scheduling retry %d/%d", deployment.Id, deployment.Attempts, deployment.MaxAttempts)
		retriedCounter.Inc()
		return o.dispatcher.DispatchIn(&dispatch.Task{
			Id:           fmt.Sprintf("%s-retry-%d", deployment.Id, deployment.Attempts),
			DeploymentId: deployment.Id,
			CreatedAt:    o.clock.Now(),
		}, o.retryBackoff)
	}

	failedCounter.Inc()
	log.Errorf("deployment %s failed after %d attempts: %v", deployment.Id, deployment.Attempts, faultErr)
	return nil
}
