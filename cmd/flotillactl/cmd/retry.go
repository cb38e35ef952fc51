package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func retryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <deployment-id>",
		Short: "Reset a preempted, queued or failed deployment and resubmit it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			deployment, err := c.RetryDeployment(args[0])
			if err != nil {
				return err
			}
			log.Infof("Deployment %s resubmitted, status %s", deployment.Id, deployment.Status)
			return nil
		},
	}
}
