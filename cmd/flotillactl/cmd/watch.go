package cmd

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flotillaproject/flotilla/pkg/api"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <deployment-id>",
		Short: "Poll a deployment until it reaches a terminal status.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			interval, err := cmd.Flags().GetDuration("interval")
			if err != nil {
				return err
			}

			lastStatus := api.DeploymentStatus("")
			for {
				deployment, err := c.GetDeployment(args[0])
				if err != nil {
					return err
				}
				if deployment.Status != lastStatus {
					log.Infof("Deployment %s is %s", deployment.Id, deployment.Status)
					lastStatus = deployment.Status
				}
				switch deployment.Status {
				case api.DeploymentCompleted, api.DeploymentPreempted:
					return nil
				case api.DeploymentFailed:
					if deployment.Attempts >= deployment.MaxAttempts {
						log.Infof("Failure reason: %s", deployment.FailureReason)
						return nil
					}
				}
				time.Sleep(interval)
			}
		},
	}
	cmd.Flags().Duration("interval", 2*time.Second, "Poll interval")
	return cmd
}
