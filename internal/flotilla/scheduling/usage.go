package scheduling

import (
	"github.com/flotillaproject/flotilla/internal/flotilla/repository"
	"github.com/flotillaproject/flotilla/pkg/api"
)

// ResourceAccountant derives per-cluster capacity usage from the current
// deployment records. Usage is recomputed from the store on every call;
// nothing is cached or reserved, so two concurrent admission checks can both
// see the same capacity as free (see Orchestrator).
type ResourceAccountant struct {
	clusterRepository    repository.ClusterRepository
	deploymentRepository repository.DeploymentRepository
}

func NewResourceAccountant(
	clusterRepository repository.ClusterRepository,
	deploymentRepository repository.DeploymentRepository,
) *ResourceAccountant {
	return &ResourceAccountant{
		clusterRepository:    clusterRepository,
		deploymentRepository: deploymentRepository,
	}
}

// GetClusterUsage reports total and used resources for every cluster.
// A deployment counts as using its requested resources while RUNNING or
// COMPLETED. Counting COMPLETED deployments means finished work never
// releases capacity in this accounting.
func (a *ResourceAccountant) GetClusterUsage() (map[string]*api.ClusterUsageReport, error) {
	clusters, err := a.clusterRepository.GetAllClusters()
	if err != nil {
		return nil, err
	}

	reports := make(map[string]*api.ClusterUsageReport, len(clusters))
	for _, cluster := range clusters {
		deployments, err := a.deploymentRepository.GetClusterDeployments(cluster.Id)
		if err != nil {
			return nil, err
		}

		used := api.ResourceList{}
		for _, deployment := range deployments {
			if deployment.Status == api.DeploymentRunning || deployment.Status == api.DeploymentCompleted {
				used = used.Add(deployment.Requested())
			}
		}

		reports[cluster.Id] = &api.ClusterUsageReport{
			ClusterId: cluster.Id,
			Total:     cluster.Capacity(),
			Used:      used,
		}
	}
	return reports, nil
}
