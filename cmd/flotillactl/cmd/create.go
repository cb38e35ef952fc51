package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flotillaproject/flotilla/pkg/client"
)

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create flotilla resources.",
		Args:  cobra.ExactArgs(0),
	}
	cmd.AddCommand(
		createClusterCmd(),
		createDeploymentCmd(),
		createUserCmd(),
		createOrganisationCmd(),
	)
	return cmd
}

func createClusterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster <name>",
		Short: "Create a cluster with a fixed capacity.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			cpu, _ := cmd.Flags().GetInt64("cpu")
			ram, _ := cmd.Flags().GetInt64("ram")
			gpu, _ := cmd.Flags().GetInt64("gpu")
			organisationId, _ := cmd.Flags().GetString("organisation")

			cluster, err := c.CreateCluster(&client.CreateClusterRequest{
				Name:           args[0],
				OrganisationId: organisationId,
				Cpu:            cpu,
				Ram:            ram,
				Gpu:            gpu,
			})
			if err != nil {
				return err
			}
			log.Infof("Created cluster %s (%s)", cluster.Id, client.FormatResources(cluster.Cpu, cluster.Ram, cluster.Gpu))
			return nil
		},
	}
	cmd.Flags().Int64("cpu", 0, "Cpu capacity")
	cmd.Flags().Int64("ram", 0, "Ram capacity")
	cmd.Flags().Int64("gpu", 0, "Gpu capacity")
	cmd.Flags().String("organisation", "", "Owning organisation id")
	return cmd
}

func createDeploymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deployment <name>",
		Short: "Create a deployment and submit it for scheduling.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			image, _ := cmd.Flags().GetString("image")
			clusterId, _ := cmd.Flags().GetString("cluster")
			userId, _ := cmd.Flags().GetString("user")
			priority, _ := cmd.Flags().GetString("priority")
			cpu, _ := cmd.Flags().GetInt64("cpu")
			ram, _ := cmd.Flags().GetInt64("ram")
			gpu, _ := cmd.Flags().GetInt64("gpu")
			maxAttempts, _ := cmd.Flags().GetInt("max-attempts")

			deployment, err := c.CreateDeployment(&client.CreateDeploymentRequest{
				Name:        args[0],
				DockerImage: image,
				ClusterId:   clusterId,
				UserId:      userId,
				Priority:    priority,
				Cpu:         cpu,
				Ram:         ram,
				Gpu:         gpu,
				MaxAttempts: maxAttempts,
			})
			if err != nil {
				return err
			}
			log.Infof("Created deployment %s with priority %s", deployment.Id, deployment.Priority)
			return nil
		},
	}
	cmd.Flags().String("image", "", "Docker image to deploy")
	cmd.Flags().String("cluster", "", "Target cluster id")
	cmd.Flags().String("user", "", "Submitting user id")
	cmd.Flags().String("priority", "", "Priority (low, medium or high)")
	cmd.Flags().Int64("cpu", 0, "Requested cpu")
	cmd.Flags().Int64("ram", 0, "Requested ram")
	cmd.Flags().Int64("gpu", 0, "Requested gpu")
	cmd.Flags().Int("max-attempts", 0, "Retry budget (server default when 0)")
	if err := cmd.MarkFlagRequired("image"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("cluster"); err != nil {
		panic(err)
	}
	return cmd
}

func createUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user <username>",
		Short: "Register a user.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			password, _ := cmd.Flags().GetString("password")
			user, err := c.CreateUser(&client.CreateUserRequest{Username: args[0], Password: password})
			if err != nil {
				return err
			}
			log.Infof("Created user %s", user.Id)
			return nil
		},
	}
	cmd.Flags().String("password", "", "Password for the new user")
	if err := cmd.MarkFlagRequired("password"); err != nil {
		panic(err)
	}
	return cmd
}

func createOrganisationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "organisation <name>",
		Short: "Create an organisation.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			organisation, err := c.CreateOrganisation(&client.CreateOrganisationRequest{Name: args[0]})
			if err != nil {
				return err
			}
			log.Infof("Created organisation %s, invite code %s", organisation.Id, organisation.InviteCode)
			return nil
		},
	}
}
