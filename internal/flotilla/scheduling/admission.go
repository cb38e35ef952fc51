package scheduling

import "github.com/flotillaproject/flotilla/pkg/api"

// AdmissionCheck is the verdict for one candidate deployment against one
// cluster's usage report. Available carries the per-dimension headroom so the
// preemption planner does not recompute accounting; it may be negative when
// the cluster is over-subscribed.
type AdmissionCheck struct {
	HasResources bool
	Available    api.ResourceList
}

// CheckDeploymentResources admits a deployment iff available >= requested on
// all three dimensions simultaneously. A nil report (unknown cluster) reads
// as "no resources"; the orchestrator decides that case is a terminal
// failure, not this layer.
func CheckDeploymentResources(deployment *api.Deployment, report *api.ClusterUsageReport) AdmissionCheck {
	if report == nil {
		return AdmissionCheck{}
	}
	available := report.Total.Sub(report.Used)
	return AdmissionCheck{
		HasResources: deployment.Requested().FitsWithin(available),
		Available:    available,
	}
}
