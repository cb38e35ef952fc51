package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flotillaproject/flotilla/pkg/client"
)

func getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print flotilla resources.",
		Args:  cobra.ExactArgs(0),
	}
	cmd.AddCommand(
		getClustersCmd(),
		getDeploymentsCmd(),
		getResourcesCmd(),
	)
	return cmd
}

func getClustersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clusters",
		Short: "List clusters and their capacity.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			clusters, err := c.ListClusters()
			if err != nil {
				return err
			}
			for _, cluster := range clusters {
				log.Infof("%s %s %s", cluster.Id, cluster.Name, client.FormatResources(cluster.Cpu, cluster.Ram, cluster.Gpu))
			}
			return nil
		},
	}
}

func getDeploymentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deployments",
		Short: "List deployments and their status.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			deployments, err := c.ListDeployments()
			if err != nil {
				return err
			}
			for _, deployment := range deployments {
				log.Infof("%s %s priority=%s status=%s attempts=%d/%d %s",
					deployment.Id,
					deployment.Name,
					deployment.Priority,
					deployment.Status,
					deployment.Attempts,
					deployment.MaxAttempts,
					client.FormatResources(deployment.RequestedCpu, deployment.RequestedRam, deployment.RequestedGpu))
			}
			return nil
		},
	}
}

func getResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "Print per-cluster resource usage.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			reports, err := c.GetResources()
			if err != nil {
				return err
			}
			for _, report := range reports {
				log.Infof("cluster %s: total %s, used %s",
					report.ClusterId,
					client.FormatResources(report.Total.Cpu, report.Total.Ram, report.Total.Gpu),
					client.FormatResources(report.Used.Cpu, report.Used.Ram, report.Used.Gpu))
			}
			return nil
		},
	}
}
