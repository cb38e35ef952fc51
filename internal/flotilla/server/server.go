package server

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/flotillaproject/flotilla/internal/common/flotillaerrors"
	"github.com/flotillaproject/flotilla/internal/flotilla/dispatch"
	"github.com/flotillaproject/flotilla/internal/flotilla/repository"
	"github.com/flotillaproject/flotilla/internal/flotilla/scheduling"
)

// RestServer exposes the record store and the scheduling engine over HTTP.
// It owns no state of its own; all writes go through the repositories and all
// deployment processing is handed to the dispatcher.
type RestServer struct {
	userRepository         repository.UserRepository
	organisationRepository repository.OrganisationRepository
	clusterRepository      repository.ClusterRepository
	deploymentRepository   repository.DeploymentRepository
	snapshotRepository     repository.SnapshotRepository
	accountant             *scheduling.ResourceAccountant
	dispatcher             dispatch.Dispatcher
	defaultMaxAttempts     int
}

func NewRestServer(
	userRepository repository.UserRepository,
	organisationRepository repository.OrganisationRepository,
	clusterRepository repository.ClusterRepository,
	deploymentRepository repository.DeploymentRepository,
	snapshotRepository repository.SnapshotRepository,
	accountant *scheduling.ResourceAccountant,
	dispatcher dispatch.Dispatcher,
	defaultMaxAttempts int,
) *RestServer {
	return &RestServer{
		userRepository:         userRepository,
		organisationRepository: organisationRepository,
		clusterRepository:      clusterRepository,
		deploymentRepository:   deploymentRepository,
		snapshotRepository:     snapshotRepository,
		accountant:             accountant,
		dispatcher:             dispatcher,
		defaultMaxAttempts:     defaultMaxAttempts,
	}
}

// Router builds the gin engine with all routes registered.
func (s *RestServer) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/users", s.createUser)
		v1.GET("/users", s.listUsers)
		v1.GET("/users/:id", s.getUser)

		v1.POST("/organisations", s.createOrganisation)
		v1.GET("/organisations", s.listOrganisations)
		v1.GET("/organisations/:id", s.getOrganisation)
		v1.GET("/organisations/:id/members", s.listOrganisationMembers)
		v1.POST("/organisations/join", s.joinOrganisation)

		v1.POST("/clusters", s.createCluster)
		v1.GET("/clusters", s.listClusters)
		v1.GET("/clusters/:id", s.getCluster)
		v1.GET("/clusters/:id/snapshots", s.listClusterSnapshots)

		v1.POST("/deployments", s.createDeployment)
		v1.GET("/deployments", s.listDeployments)
		v1.GET("/deployments/:id", s.getDeployment)
		v1.POST("/deployments/:id/retry", s.retryDeployment)

		v1.GET("/resources", s.getResources)
	}
	return router
}

// respondError translates a domain error into an HTTP response.
func respondError(c *gin.Context, err error) {
	code := flotillaerrors.CodeFromError(err)
	if code >= 500 {
		log.Errorf("request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}).Debug("request handled")
	}
}
