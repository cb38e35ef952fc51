package scheduling

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis"
	"github.com/go-redis/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flotillaproject/flotilla/internal/common/util"
	"github.com/flotillaproject/flotilla/internal/flotilla/repository"
	"github.com/flotillaproject/flotilla/pkg/api"
)

func TestGetClusterUsage_SumsRunningAndCompleted(t *testing.T) {
	withAccountant(func(a *ResourceAccountant, f *fixture) {
		f.addCluster("cluster-1", 16, 32, 2)
		f.addDeployment("cluster-1", api.PriorityMedium, api.DeploymentRunning, 4, 8, 1)
		f.addDeployment("cluster-1", api.PriorityLow, api.DeploymentCompleted, 2, 4, 0)
		// non-consuming statuses
		f.addDeployment("cluster-1", api.PriorityLow, api.DeploymentQueued, 100, 100, 100)
		f.addDeployment("cluster-1", api.PriorityLow, api.DeploymentPreempted, 100, 100, 100)
		f.addDeployment("cluster-1", api.PriorityLow, api.DeploymentFailed, 100, 100, 100)
		f.addDeployment("cluster-1", api.PriorityLow, api.DeploymentPending, 100, 100, 100)

		reports, err := a.GetClusterUsage()
		require.NoError(t, err)
		report := reports["cluster-1"]
		require.NotNil(t, report)
		assert.Equal(t, api.ResourceList{Cpu: 16, Ram: 32, Gpu: 2}, report.Total)
		assert.Equal(t, api.ResourceList{Cpu: 6, Ram: 12, Gpu: 1}, report.Used)
	})
}

func TestGetClusterUsage_IdleClusterReportsZero(t *testing.T) {
	withAccountant(func(a *ResourceAccountant, f *fixture) {
		f.addCluster("cluster-1", 8, 16, 0)

		reports, err := a.GetClusterUsage()
		require.NoError(t, err)
		assert.Equal(t, api.ResourceList{}, reports["cluster-1"].Used)
	})
}

func TestGetClusterUsage_OrderIndependent(t *testing.T) {
	withAccountant(func(a *ResourceAccountant, f *fixture) {
		f.addCluster("cluster-1", 64, 128, 8)
		for i := 0; i < 10; i++ {
			f.addDeployment("cluster-1", api.PriorityMedium, api.DeploymentRunning, 1, 2, 0)
		}

		first, err := a.GetClusterUsage()
		require.NoError(t, err)
		second, err := a.GetClusterUsage()
		require.NoError(t, err)
		assert.Equal(t, first["cluster-1"].Used, second["cluster-1"].Used)
		assert.Equal(t, api.ResourceList{Cpu: 10, Ram: 20, Gpu: 0}, first["cluster-1"].Used)
	})
}

func TestGetClusterUsage_SeparatesClusters(t *testing.T) {
	withAccountant(func(a *ResourceAccountant, f *fixture) {
		f.addCluster("cluster-1", 8, 16, 0)
		f.addCluster("cluster-2", 8, 16, 0)
		f.addDeployment("cluster-1", api.PriorityMedium, api.DeploymentRunning, 4, 8, 0)

		reports, err := a.GetClusterUsage()
		require.NoError(t, err)
		assert.Equal(t, api.ResourceList{Cpu: 4, Ram: 8, Gpu: 0}, reports["cluster-1"].Used)
		assert.Equal(t, api.ResourceList{}, reports["cluster-2"].Used)
	})
}

// fixture wires repositories over miniredis for engine tests.
type fixture struct {
	t           require.TestingT
	clusters    *repository.RedisClusterRepository
	deployments *repository.RedisDeploymentRepository
	snapshots   *repository.RedisSnapshotRepository
	now         time.Time
}

func newFixture(db *redis.Client) *fixture {
	return &fixture{
		clusters:    repository.NewRedisClusterRepository(db),
		deployments: repository.NewRedisDeploymentRepository(db),
		snapshots:   repository.NewRedisSnapshotRepository(db),
		now:         time.Now(),
	}
}

func (f *fixture) addCluster(id string, cpu, ram, gpu int64) *api.Cluster {
	cluster := &api.Cluster{Id: id, Name: id, Cpu: cpu, Ram: ram, Gpu: gpu, CreatedAt: f.now}
	if err := f.clusters.CreateCluster(cluster); err != nil {
		panic(err)
	}
	return cluster
}

func (f *fixture) addDeployment(clusterId string, priority api.Priority, status api.DeploymentStatus, cpu, ram, gpu int64) *api.Deployment {
	// spread creation times so age-based ordering is deterministic
	f.now = f.now.Add(time.Second)
	deployment := &api.Deployment{
		Id:           util.NewULID(),
		Name:         "test",
		DockerImage:  "nginx:latest",
		ClusterId:    clusterId,
		UserId:       "user-1",
		Priority:     priority,
		RequestedCpu: cpu,
		RequestedRam: ram,
		RequestedGpu: gpu,
		Status:       status,
		MaxAttempts:  2,
		CreatedAt:    f.now,
	}
	if err := f.deployments.CreateDeployment(deployment); err != nil {
		panic(err)
	}
	return deployment
}

func withAccountant(action func(a *ResourceAccountant, f *fixture)) {
	withRedis(func(db *redis.Client) {
		f := newFixture(db)
		action(NewResourceAccountant(f.clusters, f.deployments), f)
	})
}

func withRedis(action func(db *redis.Client)) {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	defer mr.Close()
	db := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer db.Close()
	action(db)
}
