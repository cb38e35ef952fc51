package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flotillaproject/flotilla/internal/common/flotillaerrors"
	"github.com/flotillaproject/flotilla/pkg/api"
)

type createClusterRequest struct {
	Name           string `json:"name" binding:"required"`
	OrganisationId string `json:"organisation_id"`
	Cpu            int64  `json:"cpu"`
	Ram            int64  `json:"ram"`
	Gpu            int64  `json:"gpu"`
}

func (s *RestServer) createCluster(c *gin.Context) {
	var request createClusterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, &flotillaerrors.ErrInvalidArgument{Name: "body", Value: "", Message: err.Error()})
		return
	}

	capacity := api.ResourceList{Cpu: request.Cpu, Ram: request.Ram, Gpu: request.Gpu}
	if !capacity.IsValid() {
		respondError(c, &flotillaerrors.ErrInvalidArgument{
			Name:    "capacity",
			Value:   capacity,
			Message: "cluster capacity must be non-negative",
		})
		return
	}

	cluster := &api.Cluster{
		Id:             uuid.NewString(),
		OrganisationId: request.OrganisationId,
		Name:           request.Name,
		Cpu:            request.Cpu,
		Ram:            request.Ram,
		Gpu:            request.Gpu,
		CreatedAt:      time.Now(),
	}
	if err := s.clusterRepository.CreateCluster(cluster); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cluster)
}

func (s *RestServer) listClusters(c *gin.Context) {
	clusters, err := s.clusterRepository.GetAllClusters()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clusters)
}

func (s *RestServer) getCluster(c *gin.Context) {
	cluster, err := s.clusterRepository.GetCluster(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cluster)
}

func (s *RestServer) listClusterSnapshots(c *gin.Context) {
	if _, err := s.clusterRepository.GetCluster(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	snapshots, err := s.snapshotRepository.GetClusterSnapshots(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshots)
}
