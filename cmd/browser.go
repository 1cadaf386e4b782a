package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nullpath7/agentcore-cli/api/schemas"
	"github.com/nullpath7/agentcore-cli/internal/browser"
	"github.com/nullpath7/agentcore-cli/internal/observability"
)

func newBrowserCmd() *cobra.Command {
	browserCmd := &cobra.Command{
		Use:   "browser",
		Short: "Drive the managed browser sandbox",
	}
	browserCmd.PersistentFlags().String("identifier", "", "browser identifier (default aws.browser.v1)")
	browserCmd.AddCommand(
		newBrowserStartCmd(),
		newBrowserNavigateCmd(),
		newBrowserScreenshotCmd(),
		newBrowserStopCmd(),
	)
	return browserCmd
}

func newBrowserClient(cmd *cobra.Command) (*browser.Client, error) {
	c := getConfig()
	applyGlobalFlags(cmd, c)
	if id, _ := cmd.Flags().GetString("identifier"); id != "" {
		c.Browser.Identifier = id
	}
	return browser.New(c.DataPlane, c.Browser, observability.GetLogger())
}

func newBrowserStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a browser sandbox session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newBrowserClient(cmd)
			if err != nil {
				return err
			}
			session, err := client.StartSession(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session: %s\nCDP endpoint: %s\n", session.SessionID, session.WSEndpoint)
			return nil
		},
	}
}

func newBrowserNavigateCmd() *cobra.Command {
	navigateCmd := &cobra.Command{
		Use:   "navigate <url>",
		Short: "Navigate the sandbox browser and print a page summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newBrowserClient(cmd)
			if err != nil {
				return err
			}

			sessionID, _ := cmd.Flags().GetString("session")
			session, stop, err := resolveBrowserSession(cmd, client, sessionID)
			if err != nil {
				return err
			}
			defer stop()

			result, err := client.NavigateAndExtract(ctx, session, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title: %s\n", result.Title)
			if result.Summary != nil {
				for _, h := range result.Summary.Headings {
					fmt.Fprintf(out, "  # %s\n", h)
				}
				fmt.Fprintf(out, "Links: %d\n", len(result.Summary.Links))
				if result.Summary.Text != "" {
					fmt.Fprintf(out, "\n%s\n", result.Summary.Text)
				}
			}
			return nil
		},
	}
	navigateCmd.Flags().StringP("session", "s", "", "existing session ID (a temporary session is created when empty)")
	return navigateCmd
}

func newBrowserScreenshotCmd() *cobra.Command {
	screenshotCmd := &cobra.Command{
		Use:   "screenshot <url>",
		Short: "Capture a full-page screenshot via the sandbox browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newBrowserClient(cmd)
			if err != nil {
				return err
			}

			sessionID, _ := cmd.Flags().GetString("session")
			output, _ := cmd.Flags().GetString("output")

			session, stop, err := resolveBrowserSession(cmd, client, sessionID)
			if err != nil {
				return err
			}
			defer stop()

			buf, err := client.Screenshot(ctx, session, args[0])
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, buf, 0o644); err != nil {
				return fmt.Errorf("failed to write screenshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(buf), output)
			return nil
		},
	}
	screenshotCmd.Flags().StringP("session", "s", "", "existing session ID (a temporary session is created when empty)")
	screenshotCmd.Flags().StringP("output", "o", "screenshot.png", "output file path")
	return screenshotCmd
}

func newBrowserStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <session-id>",
		Short: "Stop a browser sandbox session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newBrowserClient(cmd)
			if err != nil {
				return err
			}
			if err := client.StopSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped %s\n", args[0])
			return nil
		},
	}
}

// resolveBrowserSession reuses an existing session or creates a
// temporary one that is stopped when the command finishes.
func resolveBrowserSession(cmd *cobra.Command, client *browser.Client, sessionID string) (*schemas.BrowserSession, func(), error) {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	if sessionID != "" {
		existing, err := client.GetSession(ctx, sessionID)
		if err != nil {
			return nil, nil, err
		}
		return existing, func() {}, nil
	}

	created, err := client.StartSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	return created, func() {
		if err := client.StopSession(ctx, created.SessionID); err != nil {
			logger.Warn("Failed to stop temporary browser session",
				zap.String("session_id", created.SessionID), zap.Error(err))
		}
	}, nil
}
