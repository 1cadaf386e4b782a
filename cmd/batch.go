package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nullpath7/agentcore-cli/internal/batch"
	"github.com/nullpath7/agentcore-cli/internal/observability"
	"github.com/nullpath7/agentcore-cli/internal/runtime"
)

func newBatchCmd() *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch <runtime-arn>",
		Short: "Run a file of prompts against a runtime concurrently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			c := getConfig()
			applyGlobalFlags(cmd, c)

			file, _ := cmd.Flags().GetString("file")
			if concurrency, _ := cmd.Flags().GetInt("concurrency"); concurrency > 0 {
				c.Batch.Concurrency = concurrency
			}

			prompts, err := readPrompts(file)
			if err != nil {
				return err
			}

			client, err := runtime.New(c.DataPlane, c.Runtime, logger)
			if err != nil {
				return err
			}
			runner, err := batch.New(client, c.Batch, logger)
			if err != nil {
				return err
			}

			results, err := runner.Run(ctx, args[0], prompts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failures := 0
			for _, res := range results {
				if res.Err != "" {
					failures++
					fmt.Fprintf(out, "[%d] ERROR (%s): %s\n", res.Index, res.Duration.Round(1e6), res.Err)
					continue
				}
				fmt.Fprintf(out, "[%d] (%s) %s\n", res.Index, res.Duration.Round(1e6), res.Output)
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d prompts failed", failures, len(results))
			}
			return nil
		},
	}

	batchCmd.Flags().StringP("file", "f", "", "file with one prompt per line (# comments skipped)")
	batchCmd.Flags().IntP("concurrency", "j", 0, "concurrent invocations (overrides config)")
	batchCmd.MarkFlagRequired("file")
	return batchCmd
}

// readPrompts loads the prompt file, skipping blanks and comments.
func readPrompts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prompt file: %w", err)
	}
	defer f.Close()

	var prompts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prompts = append(prompts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompt file %s contains no prompts", path)
	}
	return prompts, nil
}
