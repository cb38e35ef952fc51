package scheduling

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/flotillaproject/flotilla/internal/flotilla/dispatch"
	"github.com/flotillaproject/flotilla/internal/flotilla/repository"
	"github.com/flotillaproject/flotilla/pkg/api"
)

// PlanPreemption selects running deployments to stop so that the candidate
// fits. Only deployments of strictly lower priority are considered, lowest
// priority first, oldest first within a priority. Selection is greedy: each
// victim's resources are accumulated onto the available amounts until the
// request fits on all three dimensions. First-fit, not a minimal cut; the
// algorithm favours low planning latency over efficiency.
//
// Returns the victim set and true on success. On failure nothing should be
// preempted: the returned set is nil.
func PlanPreemption(deployment *api.Deployment, available api.ResourceList, running []*api.Deployment) ([]*api.Deployment, bool) {
	requested := deployment.Requested()

	candidates := make([]*api.Deployment, 0, len(running))
	for _, d := range running {
		if d.Status == api.DeploymentRunning && d.Priority < deployment.Priority {
			candidates = append(candidates, d)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		}
		return candidates[i].Id < candidates[j].Id
	})

	potential := available
	victims := []*api.Deployment{}
	for _, candidate := range candidates {
		potential = potential.Add(candidate.Requested())
		victims = append(victims, candidate)
		if requested.FitsWithin(potential) {
			return victims, true
		}
	}
	return nil, false
}

// PreemptionExecutor forcefully stops planned victims. The stop signal is
// sent per victim first, then all status updates are committed as one batch.
// The signal is best-effort; a victim's in-flight effects may still land
// after its status flips to preempted.
type PreemptionExecutor struct {
	deploymentRepository repository.DeploymentRepository
	dispatcher           dispatch.Dispatcher
}

func NewPreemptionExecutor(
	deploymentRepository repository.DeploymentRepository,
	dispatcher dispatch.Dispatcher,
) *PreemptionExecutor {
	return &PreemptionExecutor{
		deploymentRepository: deploymentRepository,
		dispatcher:           dispatcher,
	}
}

func (e *PreemptionExecutor) PreemptDeployments(victims []*api.Deployment) error {
	log.Infof("preempting %d deployments to free resources", len(victims))

	for _, victim := range victims {
		// the victim's run is addressed by its own deployment id
		if err := e.dispatcher.Revoke(victim.Id); err != nil {
			log.WithError(err).Errorf("failed to revoke task for deployment %s", victim.Id)
		}
		victim.Status = api.DeploymentPreempted
		victim.WasPreempted = true
		victim.PreemptedCount++
	}

	if err := e.deploymentRepository.UpdateDeployments(victims); err != nil {
		return err
	}
	preemptedCounter.Add(float64(len(victims)))
	return nil
}
