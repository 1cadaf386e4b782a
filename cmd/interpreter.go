package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nullpath7/agentcore-cli/api/schemas"
	"github.com/nullpath7/agentcore-cli/internal/interpreter"
	"github.com/nullpath7/agentcore-cli/internal/observability"
)

func newInterpreterCmd() *cobra.Command {
	interpreterCmd := &cobra.Command{
		Use:     "interpreter",
		Aliases: []string{"ci"},
		Short:   "Drive the managed code-interpreter sandbox",
	}
	interpreterCmd.PersistentFlags().String("identifier", "", "interpreter identifier (default aws.codeinterpreter.v1)")
	interpreterCmd.PersistentFlags().StringP("session", "s", "", "existing session ID (a temporary session is created when empty)")
	interpreterCmd.AddCommand(
		newInterpreterStartCmd(),
		newInterpreterExecCmd(),
		newInterpreterRunCmd(),
		newInterpreterWriteCmd(),
		newInterpreterReadCmd(),
		newInterpreterLsCmd(),
		newInterpreterRmCmd(),
		newInterpreterStopCmd(),
	)
	return interpreterCmd
}

func newInterpreterClient(cmd *cobra.Command) (*interpreter.Client, error) {
	c := getConfig()
	applyGlobalFlags(cmd, c)
	if id, _ := cmd.Flags().GetString("identifier"); id != "" {
		c.Interpreter.Identifier = id
	}
	return interpreter.New(c.DataPlane, c.Interpreter, observability.GetLogger())
}

// withInterpreterSession runs fn inside an existing or temporary
// session; temporary sessions are stopped afterwards.
func withInterpreterSession(cmd *cobra.Command, fn func(client *interpreter.Client, sessionID string) error) error {
	ctx := cmd.Context()
	client, err := newInterpreterClient(cmd)
	if err != nil {
		return err
	}

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID != "" {
		return fn(client, sessionID)
	}

	session, err := client.StartSession(ctx)
	if err != nil {
		return err
	}
	defer client.StopSession(ctx, session.SessionID)
	return fn(client, session.SessionID)
}

// printOutput renders a command result the way a terminal user
// expects: stdout, then stderr, then a nonzero exit code note.
func printOutput(cmd *cobra.Command, out schemas.CommandOutput) {
	w := cmd.OutOrStdout()
	if out.Stdout != "" {
		fmt.Fprintln(w, out.Stdout)
	}
	if out.Stderr != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), out.Stderr)
	}
	if out.ExitCode != 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "exit code: %d\n", out.ExitCode)
	}
}

func newInterpreterStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a code-interpreter session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newInterpreterClient(cmd)
			if err != nil {
				return err
			}
			session, err := client.StartSession(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session: %s\n", session.SessionID)
			return nil
		},
	}
}

func newInterpreterExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command>",
		Short: "Execute a shell command in the sandbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInterpreterSession(cmd, func(client *interpreter.Client, sessionID string) error {
				out, err := client.ExecuteCommand(cmd.Context(), sessionID, args[0])
				if err != nil {
					return err
				}
				printOutput(cmd, out)
				return nil
			})
		},
	}
}

func newInterpreterRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Execute a local code file in the sandbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			language, _ := cmd.Flags().GetString("language")
			if language == "" {
				language = languageFromExtension(args[0])
			}

			return withInterpreterSession(cmd, func(client *interpreter.Client, sessionID string) error {
				out, err := client.ExecuteCode(cmd.Context(), sessionID, schemas.ExecuteCodeArgs{
					Code:     string(code),
					Language: language,
				})
				if err != nil {
					return err
				}
				printOutput(cmd, out)
				return nil
			})
		},
	}
	runCmd.Flags().StringP("language", "l", "", "code language (inferred from file extension when empty)")
	return runCmd
}

func newInterpreterWriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write <local-file> <remote-path>",
		Short: "Upload a local file into the sandbox",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return withInterpreterSession(cmd, func(client *interpreter.Client, sessionID string) error {
				files := []schemas.FileContent{{Path: args[1], Text: string(data)}}
				if err := client.WriteFiles(cmd.Context(), sessionID, files); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[1])
				return nil
			})
		},
	}
}

func newInterpreterReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <remote-path>...",
		Short: "Print sandbox file contents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInterpreterSession(cmd, func(client *interpreter.Client, sessionID string) error {
				res, err := client.ReadFiles(cmd.Context(), sessionID, args)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Text())
				return nil
			})
		},
	}
}

func newInterpreterLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List a sandbox directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return withInterpreterSession(cmd, func(client *interpreter.Client, sessionID string) error {
				res, err := client.ListFiles(cmd.Context(), sessionID, path)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Text())
				return nil
			})
		},
	}
}

func newInterpreterRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <remote-path>...",
		Short: "Remove sandbox files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInterpreterSession(cmd, func(client *interpreter.Client, sessionID string) error {
				if err := client.RemoveFiles(cmd.Context(), sessionID, args); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d file(s)\n", len(args))
				return nil
			})
		},
	}
}

func newInterpreterStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <session-id>",
		Short: "Stop a code-interpreter session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newInterpreterClient(cmd)
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

func languageFromExtension(path string) string {
	switch filepath.Ext(path) {
	case ".py":
		return "python"
	case ".js":
		return "javascript"
	case ".ts":
		return "typescript"
	default:
		return ""
	}
}
