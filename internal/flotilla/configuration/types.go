package configuration

import (
	"time"

	"github.com/go-redis/redis"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

type FlotillaConfig struct {
	HttpPort    uint16
	MetricsPort uint16

	Redis redis.UniversalOptions

	Scheduling SchedulingConfig
}

type SchedulingConfig struct {
	// Number of workers claiming deployment-processing tasks.
	WorkerCount int
	// How long an idle worker sleeps before polling the queue again.
	PollInterval time.Duration
	// Delay before a failed deployment is retried.
	RetryBackoff time.Duration
	// Retry budget applied when a deployment does not specify its own.
	DefaultMaxAttempts int
	// Periodic requeue sweep interval.
	RequeueInterval time.Duration
	// Periodic resource snapshot interval.
	SnapshotInterval time.Duration
	// TTL of the cluster record cache. Capacity is immutable so this only
	// bounds how long a freshly created cluster can be missing from lists
	// served by another process.
	ClusterCacheTtl time.Duration

	Executor ExecutorConfig
}

type ExecutorConfig struct {
	// Number of simulated work steps per deployment run.
	SimulationSteps int
	// Pause between simulated steps; each pause is a cancellation point.
	StepInterval time.Duration
}

// Validate collects all configuration problems rather than stopping at the
// first one.
func Validate(config *FlotillaConfig) error {
	var result *multierror.Error
	if config.HttpPort == 0 {
		result = multierror.Append(result, errors.New("httpPort must be set"))
	}
	if config.MetricsPort == 0 {
		result = multierror.Append(result, errors.New("metricsPort must be set"))
	}
	if len(config.Redis.Addrs) == 0 {
		result = multierror.Append(result, errors.New("redis.addrs must contain at least one address"))
	}
	if config.Scheduling.WorkerCount <= 0 {
		result = multierror.Append(result, errors.New("scheduling.workerCount must be positive"))
	}
	if config.Scheduling.PollInterval <= 0 {
		result = multierror.Append(result, errors.New("scheduling.pollInterval must be positive"))
	}
	if config.Scheduling.RetryBackoff < 0 {
		result = multierror.Append(result, errors.New("scheduling.retryBackoff must not be negative"))
	}
	if config.Scheduling.DefaultMaxAttempts <= 0 {
		result = multierror.Append(result, errors.New("scheduling.defaultMaxAttempts must be positive"))
	}
	if config.Scheduling.RequeueInterval <= 0 {
		result = multierror.Append(result, errors.New("scheduling.requeueInterval must be positive"))
	}
	if config.Scheduling.SnapshotInterval <= 0 {
		result = multierror.Append(result, errors.New("scheduling.snapshotInterval must be positive"))
	}
	if config.Scheduling.Executor.SimulationSteps <= 0 {
		result = multierror.Append(result, errors.New("scheduling.executor.simulationSteps must be positive"))
	}
	return result.ErrorOrNil()
}
