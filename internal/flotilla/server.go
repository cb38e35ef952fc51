package flotilla

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-redis/redis"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/flotillaproject/flotilla/internal/common/task"
	"github.com/flotillaproject/flotilla/internal/common/util"
	"github.com/flotillaproject/flotilla/internal/flotilla/cache"
	"github.com/flotillaproject/flotilla/internal/flotilla/configuration"
	"github.com/flotillaproject/flotilla/internal/flotilla/dispatch"
	"github.com/flotillaproject/flotilla/internal/flotilla/repository"
	"github.com/flotillaproject/flotilla/internal/flotilla/scheduling"
	"github.com/flotillaproject/flotilla/internal/flotilla/server"
)

// Serve wires up the record store, dispatch queue, scheduling engine and REST
// API, then runs them until ctx is cancelled or a component fails.
func Serve(ctx context.Context, config *configuration.FlotillaConfig) error {
	log.Info("Flotilla server starting")
	defer log.Info("Flotilla server shutting down")

	if err := configuration.Validate(config); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	db := redis.NewUniversalClient(&config.Redis)
	defer db.Close()
	if err := probeRedis(db); err != nil {
		return err
	}

	clusterRepository := cache.NewClusterCache(
		repository.NewRedisClusterRepository(db),
		config.Scheduling.ClusterCacheTtl,
	)
	deploymentRepository := repository.NewRedisDeploymentRepository(db)
	snapshotRepository := repository.NewRedisSnapshotRepository(db)
	userRepository := repository.NewRedisUserRepository(db)
	organisationRepository := repository.NewRedisOrganisationRepository(db)

	dispatcher := dispatch.NewRedisTaskDispatcher(db)
	accountant := scheduling.NewResourceAccountant(clusterRepository, deploymentRepository)
	preemptionExecutor := scheduling.NewPreemptionExecutor(deploymentRepository, dispatcher)
	sweeper := scheduling.NewRequeueSweeper(deploymentRepository, dispatcher)
	executor := scheduling.NewSimulatedExecutor(
		config.Scheduling.Executor.SimulationSteps,
		config.Scheduling.Executor.StepInterval,
	)
	orchestrator := scheduling.NewOrchestrator(
		clusterRepository,
		deploymentRepository,
		accountant,
		preemptionExecutor,
		executor,
		dispatcher,
		sweeper,
		config.Scheduling.RetryBackoff,
	)
	recorder := scheduling.NewSnapshotRecorder(accountant, snapshotRepository, &util.DefaultClock{})

	workerPool := dispatch.NewWorkerPool(
		dispatcher,
		orchestrator.ProcessDeployment,
		config.Scheduling.WorkerCount,
		config.Scheduling.PollInterval,
	)
	g.Go(func() error { return workerPool.Run(ctx) })

	taskManager := task.NewBackgroundTaskManager(scheduling.MetricsPrefix)
	taskManager.Register(sweeper.Sweep, config.Scheduling.RequeueInterval, "requeue_sweep")
	taskManager.Register(recorder.CaptureResourceUtilization, config.Scheduling.SnapshotInterval, "resource_snapshot")
	defer func() {
		if !taskManager.StopAll(10 * time.Second) {
			log.Warn("background tasks did not stop within timeout")
		}
	}()

	restServer := server.NewRestServer(
		userRepository,
		organisationRepository,
		clusterRepository,
		deploymentRepository,
		snapshotRepository,
		accountant,
		dispatcher,
		config.Scheduling.DefaultMaxAttempts,
	)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.HttpPort),
		Handler: restServer.Router(),
	}
	g.Go(func() error {
		log.Infof("REST API listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// probeRedis fails fast with a clear error when redis is unreachable at
// startup, retrying briefly to ride out container start ordering.
func probeRedis(db redis.UniversalClient) error {
	return retry.Do(
		func() error {
			return db.Ping().Err()
		},
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.OnRetry(func(attempt uint, err error) {
			log.Warnf("redis not reachable (attempt %d): %v", attempt+1, err)
		}),
	)
}
