package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nullpath7/agentcore-cli/internal/agent"
	"github.com/nullpath7/agentcore-cli/internal/config"
	"github.com/nullpath7/agentcore-cli/internal/observability"
	"github.com/nullpath7/agentcore-cli/internal/server"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local agent behind the runtime /invocations contract",
		Long: `Serve hosts a local agent behind the same HTTP contract the managed
agent runtime speaks (POST /invocations, GET /ping), including
server-sent event streaming. Use it to exercise an agent with the
invoke command before deploying:

  agentcore serve --agent echo &
  agentcore invoke local --endpoint http://127.0.0.1:8080 --prompt "hi" --stream`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			c := getConfig()

			if provider, _ := cmd.Flags().GetString("agent"); provider != "" {
				c.Agent.Provider = config.AgentProvider(provider)
			}
			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				c.Serve.Port = port
			}
			if err := c.Validate(); err != nil {
				return err
			}

			a, err := agent.New(c.Agent, logger)
			if err != nil {
				return err
			}
			return server.New(a, c.Serve, logger).ListenAndServe(cmd.Context())
		},
	}

	serveCmd.Flags().String("agent", "", "agent provider: echo or gemini (overrides config)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	return serveCmd
}
