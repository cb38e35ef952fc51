package task

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

type periodicTask struct {
	run      func()
	interval time.Duration
	name     string
	stop     chan struct{}
}

// BackgroundTaskManager runs registered functions on fixed intervals, each on
// its own goroutine, and records per-task latency histograms. It is not
// threadsafe and should only be configured from a single goroutine.
type BackgroundTaskManager struct {
	tasks         []*periodicTask
	metricsPrefix string
	wg            sync.WaitGroup
}

func NewBackgroundTaskManager(metricsPrefix string) *BackgroundTaskManager {
	return &BackgroundTaskManager{metricsPrefix: metricsPrefix}
}

// Register starts running the task immediately and then once per interval
// until StopAll is called.
func (m *BackgroundTaskManager) Register(run func(), interval time.Duration, name string) {
	t := &periodicTask{
		run:      run,
		interval: interval,
		name:     name,
		stop:     make(chan struct{}),
	}
	m.tasks = append(m.tasks, t)

	latency := promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    m.metricsPrefix + t.name + "_latency_seconds",
		Help:    "Background loop " + t.name + " latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
	})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			start := time.Now()
			runTask(t)
			latency.Observe(time.Since(start).Seconds())

			select {
			case <-time.After(t.interval):
			case <-t.stop:
				return
			}
		}
	}()
}

// StopAll signals every task to stop and waits for them to finish.
// Returns true if the timeout elapsed before all tasks completed.
func (m *BackgroundTaskManager) StopAll(timeout time.Duration) bool {
	for _, t := range m.tasks {
		close(t.stop)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.wg.Wait()
	}()
	select {
	case <-done:
		return false
	case <-time.After(timeout):
		return true
	}
}

func runTask(t *periodicTask) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("background task %s panicked: %v", t.name, r)
		}
	}()
	t.run()
}
