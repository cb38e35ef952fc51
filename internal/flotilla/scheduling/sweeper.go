package scheduling

import (
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/flotillaproject/flotilla/internal/flotilla/dispatch"
	"github.com/flotillaproject/flotilla/internal/flotilla/repository"
	"github.com/flotillaproject/flotilla/pkg/api"
)

// RequeueSweeper rescans queued deployments and resubmits them for
// admission. It runs after every completed deployment and on a fixed
// periodic tick. It does not run after a preemption frees capacity
// mid-admission; freed capacity can sit unused until the next tick.
type RequeueSweeper struct {
	deploymentRepository repository.DeploymentRepository
	dispatcher           dispatch.Dispatcher
}

func NewRequeueSweeper(
	deploymentRepository repository.DeploymentRepository,
	dispatcher dispatch.Dispatcher,
) *RequeueSweeper {
	return &RequeueSweeper{
		deploymentRepository: deploymentRepository,
		dispatcher:           dispatcher,
	}
}

// Sweep dispatches a processing task for every queued deployment, highest
// priority first. Errors are logged, not returned: the sweep is repeated
// periodically, so a failed pass heals on the next tick.
func (s *RequeueSweeper) Sweep() {
	deployments, err := s.deploymentRepository.GetAllDeployments()
	if err != nil {
		log.WithError(err).Error("failed to load deployments for requeue sweep")
		return
	}

	queued := make([]*api.Deployment, 0, len(deployments))
	for _, d := range deployments {
		if d.Status == api.DeploymentQueued {
			queued = append(queued, d)
		}
	}
	SortQueued(queued)

	log.Infof("found %d queued deployments to process", len(queued))
	for _, d := range queued {
		// the deployment id doubles as the task id so a later preemption can
		// target this invocation
		err := s.dispatcher.Dispatch(&dispatch.Task{
			Id:           d.Id,
			DeploymentId: d.Id,
			CreatedAt:    time.Now(),
		})
		if err != nil {
			log.WithError(err).Errorf("failed to re-dispatch queued deployment %s", d.Id)
		}
	}
}

// SortQueued orders deployments by priority descending, then by creation
// time ascending, then by id; a stable priority-queue discipline, so two
// sweeps over unchanged state produce the same order.
func SortQueued(deployments []*api.Deployment) {
	sort.Slice(deployments, func(i, j int) bool {
		if deployments[i].Priority != deployments[j].Priority {
			return deployments[i].Priority > deployments[j].Priority
		}
		if !deployments[i].CreatedAt.Equal(deployments[j].CreatedAt) {
			return deployments[i].CreatedAt.Before(deployments[j].CreatedAt)
		}
		return deployments[i].Id < deployments[j].Id
	})
}
