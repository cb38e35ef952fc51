package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flotillaproject/flotilla/internal/flotilla/dispatch"
	"github.com/flotillaproject/flotilla/internal/flotilla/repository"
	"github.com/flotillaproject/flotilla/internal/flotilla/scheduling"
	"github.com/flotillaproject/flotilla/pkg/api"
)

func TestCreateAndGetCluster(t *testing.T) {
	withServer(func(env *testEnv) {
		w := env.do("POST", "/api/v1/clusters", gin.H{"name": "alpha", "cpu": 8, "ram": 16, "gpu": 1})
		require.Equal(t, http.StatusCreated, w.Code)

		var cluster api.Cluster
		decode(t, w, &cluster)
		assert.NotEmpty(t, cluster.Id)
		assert.Equal(t, int64(8), cluster.Cpu)

		w = env.do("GET", "/api/v1/clusters/"+cluster.Id, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do("GET", "/api/v1/clusters", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var clusters []*api.Cluster
		decode(t, w, &clusters)
		assert.Len(t, clusters, 1)
	})
}

func TestCreateCluster_NegativeCapacityRejected(t *testing.T) {
	withServer(func(env *testEnv) {
		w := env.do("POST", "/api/v1/clusters", gin.H{"name": "alpha", "cpu": -1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetCluster_Missing(t *testing.T) {
	withServer(func(env *testEnv) {
		w := env.do("GET", "/api/v1/clusters/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCreateDeployment_DispatchesTask(t *testing.T) {
	withServer(func(env *testEnv) {
		cluster := env.createCluster(t, "alpha", 8, 16, 0)

		w := env.do("POST", "/api/v1/deployments", gin.H{
			"name":         "web",
			"docker_image": "nginx:latest",
			"cluster_id":   cluster.Id,
			"priority":     "High",
			"cpu":          2,
			"ram":          4,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var deployment api.Deployment
		decode(t, w, &deployment)
		assert.Equal(t, api.DeploymentPending, deployment.Status)
		assert.Equal(t, api.PriorityHigh, deployment.Priority)
		assert.Equal(t, 2, deployment.MaxAttempts)

		tasks := env.dispatcher.tasks()
		require.Len(t, tasks, 1)
		assert.Equal(t, deployment.Id, tasks[0].Id)
		assert.Equal(t, deployment.Id, tasks[0].DeploymentId)
	})
}

func TestCreateDeployment_UnknownPriorityRejected(t *testing.T) {
	withServer(func(env *testEnv) {
		cluster := env.createCluster(t, "alpha", 8, 16, 0)

		w := env.do("POST", "/api/v1/deployments", gin.H{
			"name":         "web",
			"docker_image": "nginx:latest",
			"cluster_id":   cluster.Id,
			"priority":     "urgent",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, env.dispatcher.tasks())
	})
}

func TestCreateDeployment_UnknownClusterRejected(t *testing.T) {
	withServer(func(env *testEnv) {
		w := env.do("POST", "/api/v1/deployments", gin.H{
			"name":         "web",
			"docker_image": "nginx:latest",
			"cluster_id":   "missing",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, env.dispatcher.tasks())
	})
}

func TestRetryDeployment_ResetsFailedDeployment(t *testing.T) {
	withServer(func(env *testEnv) {
		cluster := env.createCluster(t, "alpha", 8, 16, 0)
		deployment := env.createDeployment(t, cluster.Id)

		deployment.Status = api.DeploymentFailed
		deployment.Attempts = 2
		deployment.FailureReason = "boom"
		require.NoError(t, env.deployments.UpdateDeployment(deployment))
		env.dispatcher.reset()

		w := env.do("POST", "/api/v1/deployments/"+deployment.Id+"/retry", nil)
		require.Equal(t, http.StatusOK, w.Code)

		loaded, err := env.deployments.GetDeployment(deployment.Id)
		require.NoError(t, err)
		assert.Equal(t, api.DeploymentPending, loaded.Status)
		assert.Equal(t, 0, loaded.Attempts)
		assert.Empty(t, loaded.FailureReason)

		tasks := env.dispatcher.tasks()
		require.Len(t, tasks, 1)
		assert.Equal(t, deployment.Id, tasks[0].Id)
	})
}

func TestRetryDeployment_RunningRejected(t *testing.T) {
	withServer(func(env *testEnv) {
		cluster := env.createCluster(t, "alpha", 8, 16, 0)
		deployment := env.createDeployment(t, cluster.Id)

		deployment.Status = api.DeploymentRunning
		require.NoError(t, env.deployments.UpdateDeployment(deployment))
		env.dispatcher.reset()

		w := env.do("POST", "/api/v1/deployments/"+deployment.Id+"/retry", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Empty(t, env.dispatcher.tasks())
	})
}

func TestUsers_DuplicateUsernameConflicts(t *testing.T) {
	withServer(func(env *testEnv) {
		w := env.do("POST", "/api/v1/users", gin.H{"username": "ada", "password": "pw"})
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.do("POST", "/api/v1/users", gin.H{"username": "ada", "password": "other"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestJoinOrganisation(t *testing.T) {
	withServer(func(env *testEnv) {
		w := env.do("POST", "/api/v1/users", gin.H{"username": "ada", "password": "pw"})
		require.Equal(t, http.StatusCreated, w.Code)
		var user api.User
		decode(t, w, &user)

		w = env.do("POST", "/api/v1/organisations", gin.H{"name": "acme"})
		require.Equal(t, http.StatusCreated, w.Code)
		var organisation api.Organisation
		decode(t, w, &organisation)
		require.NotEmpty(t, organisation.InviteCode)

		w = env.do("POST", "/api/v1/organisations/join", gin.H{
			"invite_code": organisation.InviteCode,
			"user_id":     user.Id,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		var member api.OrganisationMember
		decode(t, w, &member)
		assert.Equal(t, "dev", member.Role)
		assert.Equal(t, organisation.Id, member.OrganisationId)

		w = env.do("GET", "/api/v1/organisations/"+organisation.Id+"/members", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var members []*api.OrganisationMember
		decode(t, w, &members)
		assert.Len(t, members, 1)
	})
}

func TestJoinOrganisation_BadInviteCode(t *testing.T) {
	withServer(func(env *testEnv) {
		w := env.do("POST", "/api/v1/users", gin.H{"username": "ada", "password": "pw"})
		require.Equal(t, http.StatusCreated, w.Code)
		var user api.User
		decode(t, w, &user)

		w = env.do("POST", "/api/v1/organisations/join", gin.H{
			"invite_code": "not-a-code",
			"user_id":     user.Id,
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetResources(t *testing.T) {
	withServer(func(env *testEnv) {
		cluster := env.createCluster(t, "alpha", 8, 16, 0)
		deployment := env.createDeployment(t, cluster.Id)
		deployment.Status = api.DeploymentRunning
		require.NoError(t, env.deployments.UpdateDeployment(deployment))

		w := env.do("GET", "/api/v1/resources", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var reports []*api.ClusterUsageReport
		decode(t, w, &reports)
		require.Len(t, reports, 1)
		assert.Equal(t, cluster.Id, reports[0].ClusterId)
		assert.Equal(t, int64(2), reports[0].Used.Cpu)
	})
}

func TestHealth(t *testing.T) {
	withServer(func(env *testEnv) {
		w := env.do("GET", "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

type testEnv struct {
	router      *gin.Engine
	dispatcher  *fakeDispatcher
	deployments *repository.RedisDeploymentRepository
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, request)
	return w
}

func (e *testEnv) createCluster(t *testing.T, name string, cpu, ram, gpu int64) *api.Cluster {
	w := e.do("POST", "/api/v1/clusters", gin.H{"name": name, "cpu": cpu, "ram": ram, "gpu": gpu})
	require.Equal(t, http.StatusCreated, w.Code)
	var cluster api.Cluster
	decode(t, w, &cluster)
	return &cluster
}

func (e *testEnv) createDeployment(t *testing.T, clusterId string) *api.Deployment {
	w := e.do("POST", "/api/v1/deployments", gin.H{
		"name":         "web",
		"docker_image": "nginx:latest",
		"cluster_id":   clusterId,
		"cpu":          2,
		"ram":          4,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var deployment api.Deployment
	decode(t, w, &deployment)
	return &deployment
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), into))
}

func withServer(action func(env *testEnv)) {
	gin.SetMode(gin.TestMode)
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	defer mr.Close()
	db := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer db.Close()

	clusters := repository.NewRedisClusterRepository(db)
	deployments := repository.NewRedisDeploymentRepository(db)
	dispatcher := &fakeDispatcher{}
	restServer := NewRestServer(
		repository.NewRedisUserRepository(db),
		repository.NewRedisOrganisationRepository(db),
		clusters,
		deployments,
		repository.NewRedisSnapshotRepository(db),
		scheduling.NewResourceAccountant(clusters, deployments),
		dispatcher,
		2,
	)
	action(&testEnv{router: restServer.Router(), dispatcher: dispatcher, deployments: deployments})
}

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []*dispatch.Task
}

func (d *fakeDispatcher) Dispatch(task *dispatch.Task) error {
	return d.DispatchIn(task, 0)
}

func (d *fakeDispatcher) DispatchIn(task *dispatch.Task, delay time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatched = append(d.dispatched, task)
	return nil
}

func (d *fakeDispatcher) Revoke(taskId string) error {
	return nil
}

func (d *fakeDispatcher) tasks() []*dispatch.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*dispatch.Task{}, d.dispatched...)
}

func (d *fakeDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatched = nil
}
