package cmd

import (
	"github.com/spf13/cobra"

	"github.com/flotillaproject/flotilla/pkg/client"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flotillactl",
		Short: "flotillactl controls the Flotilla deployment scheduling system.",
	}

	cmd.PersistentFlags().String("url", "http://localhost:8080", "Flotilla server url")

	cmd.AddCommand(
		createCmd(),
		getCmd(),
		retryCmd(),
		watchCmd(),
	)

	return cmd
}

func apiClient(cmd *cobra.Command) (*client.ApiClient, error) {
	url, err := cmd.Flags().GetString("url")
	if err != nil {
		return nil, err
	}
	return client.New(&client.ApiConnectionDetails{Url: url}), nil
}
