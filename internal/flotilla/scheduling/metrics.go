package scheduling

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const MetricsPrefix = "flotilla_"

var admittedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: MetricsPrefix + "deployments_admitted_total",
	Help: "Number of deployments admitted to run, directly or after preemption",
})

var queuedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: MetricsPrefix + "deployments_queued_total",
	Help: "Number of deployments held in the queue for lack of resources",
})

var preemptedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: MetricsPrefix + "deployments_preempted_total",
	Help: "Number of running deployments forcefully stopped to free resources",
})

var completedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: MetricsPrefix + "deployments_completed_total",
	Help: "Number of deployments that ran to completion",
})

var failedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: MetricsPrefix + "deployments_failed_total",
	Help: "Number of deployment executions that failed terminally",
})

var retriedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: MetricsPrefix + "deployments_retried_total",
	Help: "Number of failed executions scheduled for another attempt",
})

var utilizationGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: MetricsPrefix + "cluster_resource_utilization",
	Help: "Percentage of a cluster resource currently accounted as used",
}, []string{"cluster", "resource"})
