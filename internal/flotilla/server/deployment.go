package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flotillaproject/flotilla/internal/common/flotillaerrors"
	"github.com/flotillaproject/flotilla/internal/common/util"
	"github.com/flotillaproject/flotilla/internal/flotilla/dispatch"
	"github.com/flotillaproject/flotilla/pkg/api"
)

type createDeploymentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	DockerImage string `json:"docker_image" binding:"required"`
	ClusterId   string `json:"cluster_id" binding:"required"`
	UserId      string `json:"user_id"`
	Priority    string `json:"priority"`
	Cpu         int64  `json:"cpu"`
	Ram         int64  `json:"ram"`
	Gpu         int64  `json:"gpu"`
	MaxAttempts int    `json:"max_attempts"`
}

// createDeployment persists a new deployment as pending and dispatches a
// processing task for it. The task id equals the deployment id so that a
// later preemption can revoke the run by deployment id alone.
func (s *RestServer) createDeployment(c *gin.Context) {
	var request createDeploymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, &flotillaerrors.ErrInvalidArgument{Name: "body", Value: "", Message: err.Error()})
		return
	}

	priority, err := api.ParsePriority(request.Priority)
	if err != nil {
		respondError(c, &flotillaerrors.ErrInvalidArgument{Name: "priority", Value: request.Priority, Message: err.Error()})
		return
	}
	requested := api.ResourceList{Cpu: request.Cpu, Ram: request.Ram, Gpu: request.Gpu}
	if !requested.IsValid() {
		respondError(c, &flotillaerrors.ErrInvalidArgument{
			Name:    "resources",
			Value:   requested,
			Message: "requested resources must be non-negative",
		})
		return
	}
	if request.MaxAttempts < 0 {
		respondError(c, &flotillaerrors.ErrInvalidArgument{Name: "max_attempts", Value: request.MaxAttempts})
		return
	}

	if _, err := s.clusterRepository.GetCluster(request.ClusterId); err != nil {
		respondError(c, err)
		return
	}
	if request.UserId != "" {
		if _, err := s.userRepository.GetUser(request.UserId); err != nil {
			respondError(c, err)
			return
		}
	}

	maxAttempts := request.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = s.defaultMaxAttempts
	}

	now := time.Now()
	deployment := &api.Deployment{
		Id:           util.NewULID(),
		Name:         request.Name,
		Description:  request.Description,
		DockerImage:  request.DockerImage,
		ClusterId:    request.ClusterId,
		UserId:       request.UserId,
		Priority:     priority,
		RequestedCpu: request.Cpu,
		RequestedRam: request.Ram,
		RequestedGpu: request.Gpu,
		Status:       api.DeploymentPending,
		MaxAttempts:  maxAttempts,
		CreatedAt:    now,
	}
	if err := s.deploymentRepository.CreateDeployment(deployment); err != nil {
		respondError(c, err)
		return
	}

	if err := s.dispatcher.Dispatch(&dispatch.Task{Id: deployment.Id, DeploymentId: deployment.Id, CreatedAt: now}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deployment)
}

func (s *RestServer) listDeployments(c *gin.Context) {
	var (
		deployments []*api.Deployment
		err         error
	)
	if clusterId := c.Query("cluster_id"); clusterId != "" {
		deployments, err = s.deploymentRepository.GetClusterDeployments(clusterId)
	} else {
		deployments, err = s.deploymentRepository.GetAllDeployments()
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deployments)
}

func (s *RestServer) getDeployment(c *gin.Context) {
	deployment, err := s.deploymentRepository.GetDeployment(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deployment)
}

// retryDeployment resets a preempted, queued or failed deployment back to
// pending and dispatches a fresh processing task under the original task id.
// Attempts are zeroed so the deployment gets its full retry budget again.
func (s *RestServer) retryDeployment(c *gin.Context) {
	deployment, err := s.deploymentRepository.GetDeployment(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	switch deployment.Status {
	case api.DeploymentPreempted, api.DeploymentQueued, api.DeploymentFailed:
	default:
		respondError(c, &flotillaerrors.ErrInvalidStatus{
			Type:    "deployment",
			Value:   deployment.Id,
			Status:  string(deployment.Status),
			Message: "only preempted, queued or failed deployments can be retried",
		})
		return
	}

	deployment.Status = api.DeploymentPending
	deployment.Attempts = 0
	deployment.FailureReason = ""
	if err := s.deploymentRepository.UpdateDeployment(deployment); err != nil {
		respondError(c, err)
		return
	}

	if err := s.dispatcher.Dispatch(&dispatch.Task{Id: deployment.Id, DeploymentId: deployment.Id, CreatedAt: time.Now()}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deployment)
}
