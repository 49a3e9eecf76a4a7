package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voxpipe/voxpipe/internal/server"
)

// EnvOpenAIAPIKey is the environment variable holding the provider credential.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

// ServeCmd creates the serve command, which runs the local transcription
// proxy that the transcribe command talks to.
func ServeCmd(env *Env) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local transcription proxy",
		Long: `Run the HTTP proxy that forwards multipart audio uploads to the
transcription provider and normalizes its responses.

The proxy starts without a credential, but transcription requests will
fail with HTTP 500 until OPENAI_API_KEY is set.`,
		Example: `  voxpipe serve
  voxpipe serve --addr :9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey := env.Getenv(EnvOpenAIAPIKey)
			if apiKey == "" {
				fmt.Fprintf(env.Stderr, "Warning: %s not set; transcription requests will fail\n", EnvOpenAIAPIKey)
			}
			return server.New(addr, apiKey).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8090", "Listen address")

	return cmd
}
