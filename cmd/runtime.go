package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nullpath7/agentcore-cli/api/schemas"
	"github.com/nullpath7/agentcore-cli/internal/controlplane"
	"github.com/nullpath7/agentcore-cli/internal/observability"
)

func newRuntimeCmd() *cobra.Command {
	runtimeCmd := &cobra.Command{
		Use:   "runtime",
		Short: "Manage hosted agent runtime resources",
	}
	runtimeCmd.AddCommand(
		newRuntimeCreateCmd(),
		newRuntimeGetCmd(),
		newRuntimeListCmd(),
		newRuntimeDeleteCmd(),
	)
	return runtimeCmd
}

func newControlPlaneClient(cmd *cobra.Command) (*controlplane.Client, error) {
	c := getConfig()
	applyGlobalFlags(cmd, c)
	return controlplane.New(c.ControlPlane, observability.GetLogger())
}

func newRuntimeCreateCmd() *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a new agent runtime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newControlPlaneClient(cmd)
			if err != nil {
				return err
			}

			in := schemas.CreateAgentRuntimeInput{Name: args[0]}
			in.RoleARN, _ = cmd.Flags().GetString("role-arn")
			in.ContainerURI, _ = cmd.Flags().GetString("container-uri")
			in.Description, _ = cmd.Flags().GetString("description")

			rt, err := client.CreateAgentRuntime(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", rt.ARN, rt.Status)
			return nil
		},
	}
	createCmd.Flags().String("role-arn", "", "execution role ARN")
	createCmd.Flags().String("container-uri", "", "agent container image URI")
	createCmd.Flags().String("description", "", "resource description")
	createCmd.MarkFlagRequired("role-arn")
	createCmd.MarkFlagRequired("container-uri")
	return createCmd
}

func newRuntimeGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <runtime-id>",
		Short: "Show one agent runtime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newControlPlaneClient(cmd)
			if err != nil {
				return err
			}
			rt, err := client.GetAgentRuntime(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "ARN:\t%s\n", rt.ARN)
			fmt.Fprintf(w, "Name:\t%s\n", rt.Name)
			fmt.Fprintf(w, "Status:\t%s\n", rt.Status)
			fmt.Fprintf(w, "Version:\t%s\n", rt.Version)
			fmt.Fprintf(w, "Created:\t%s\n", rt.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			return w.Flush()
		},
	}
}

func newRuntimeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List agent runtimes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newControlPlaneClient(cmd)
			if err != nil {
				return err
			}
			runtimes, err := client.ListAgentRuntimes(cmd.Context())
			if err != nil {
				return err
			}
			if len(runtimes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No agent runtimes found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATUS\tARN")
			for _, rt := range runtimes {
				fmt.Fprintf(w, "%s\t%s\t%s\n", rt.Name, rt.Status, rt.ARN)
			}
			return w.Flush()
		},
	}
}

func newRuntimeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <runtime-id>",
		Short: "Delete an agent runtime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newControlPlaneClient(cmd)
			if err != nil {
				return err
			}
			if err := client.DeleteAgentRuntime(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, schemas.ErrNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "Runtime %s does not exist.\n", args[0])
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
