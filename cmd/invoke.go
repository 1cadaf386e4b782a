package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nullpath7/agentcore-cli/api/schemas"
	"github.com/nullpath7/agentcore-cli/internal/config"
	"github.com/nullpath7/agentcore-cli/internal/observability"
	"github.com/nullpath7/agentcore-cli/internal/runtime"
	"github.com/nullpath7/agentcore-cli/internal/store"
)

func newInvokeCmd() *cobra.Command {
	invokeCmd := &cobra.Command{
		Use:   "invoke <runtime-arn>",
		Short: "Invoke a hosted agent runtime with a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			c := getConfig()
			applyGlobalFlags(cmd, c)

			prompt, _ := cmd.Flags().GetString("prompt")
			sessionID, _ := cmd.Flags().GetString("session")
			qualifier, _ := cmd.Flags().GetString("qualifier")
			stream, _ := cmd.Flags().GetBool("stream")

			client, err := runtime.New(c.DataPlane, c.Runtime, logger)
			if err != nil {
				return err
			}

			req := schemas.InvocationRequest{
				RuntimeARN: args[0],
				Qualifier:  qualifier,
				SessionID:  sessionID,
				Prompt:     prompt,
			}

			start := time.Now()
			record := schemas.InvocationRecord{
				ID:         uuid.New().String(),
				RuntimeARN: req.RuntimeARN,
				Prompt:     prompt,
				Streamed:   stream,
				CreatedAt:  start,
			}

			var output string
			var invokeErr error
			if stream {
				var s *runtime.Stream
				s, invokeErr = client.InvokeStream(ctx, req)
				if invokeErr == nil {
					record.SessionID = s.SessionID
					output, invokeErr = streamToStdout(cmd, s)
				}
			} else {
				var res *schemas.InvocationResult
				res, invokeErr = client.Invoke(ctx, req)
				if invokeErr == nil {
					record.SessionID = res.SessionID
					output = res.Text()
					fmt.Fprintln(cmd.OutOrStdout(), output)
				}
			}

			// The client generates a session ID when none was given; fall
			// back to the flag value only when the call never left.
			if record.SessionID == "" {
				record.SessionID = req.SessionID
			}
			record.Response = output
			record.DurationMs = time.Since(start).Milliseconds()
			if invokeErr != nil {
				record.Error = invokeErr.Error()
			}
			persistRecord(ctx, c, logger, record)

			return invokeErr
		},
	}

	invokeCmd.Flags().StringP("prompt", "p", "", "prompt to send to the agent")
	invokeCmd.Flags().StringP("session", "s", "", "runtime session ID (generated when empty)")
	invokeCmd.Flags().String("qualifier", "", "runtime endpoint qualifier (default DEFAULT)")
	invokeCmd.Flags().Bool("stream", false, "consume the response as a server-sent event stream")
	invokeCmd.MarkFlagRequired("prompt")

	return invokeCmd
}

// streamToStdout drains a streaming invocation, printing chunks as
// they arrive and returning the concatenated transcript.
func streamToStdout(cmd *cobra.Command, stream *runtime.Stream) (string, error) {
	defer stream.Close()

	var transcript string
	for {
		ev, err := stream.Recv()
		if err == schemas.ErrStreamClosed {
			fmt.Fprintln(cmd.OutOrStdout())
			return transcript, nil
		}
		if err != nil {
			return transcript, err
		}
		if ev.IsError() {
			return transcript, &schemas.APIError{Code: ev.Type, Message: ev.Error}
		}
		transcript += ev.Data
		fmt.Fprint(cmd.OutOrStdout(), ev.Data)
	}
}

// persistRecord writes the audit record when a database is configured.
// Persistence failures are logged, never fatal to the invocation.
func persistRecord(ctx context.Context, c *config.Config, logger *zap.Logger, record schemas.InvocationRecord) {
	if c.Database.URL == "" {
		return
	}
	pool, err := pgxpool.New(ctx, c.Database.URL)
	if err != nil {
		logger.Warn("Failed to connect to audit database", zap.Error(err))
		return
	}
	defer pool.Close()

	st, err := store.New(ctx, pool, logger)
	if err != nil {
		logger.Warn("Failed to initialize audit store", zap.Error(err))
		return
	}
	if err := st.EnsureSchema(ctx); err != nil {
		logger.Warn("Failed to ensure audit schema", zap.Error(err))
		return
	}
	if err := st.SaveInvocations(ctx, []schemas.InvocationRecord{record}); err != nil {
		logger.Warn("Failed to persist invocation record", zap.Error(err))
	}
}
