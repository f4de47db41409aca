package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/notewise/internal/infrastructure/httpapi"
	infraai "github.com/felixgeelhaar/notewise/pkg/ai"
)

// serveWriteTimeout covers the slowest completion the client allows.
const serveWriteTimeout = infraai.DefaultConnectTimeout + infraai.MaxReadTimeout + 5*time.Second

// defaultListenAddr keeps the hosts on loopback unless --addr says otherwise.
const defaultListenAddr = "127.0.0.1:8080"

var (
	serveAddr    string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assist actions over HTTP",
	Long: `Serve the assist actions as a JSON API:
  POST /v1/assist/{operation}  {"note": "...", "prompt": "..."}
  POST /v1/actions             {"note": "..."}
  GET  /ping`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		handler := httpapi.NewHandler(services.Assist, services.Logger)
		server := httpapi.NewServer(serveAddr, handler, serveOrigins, serveWriteTimeout, services.Logger)

		cmd.Printf("Serving notewise on %s (press Ctrl+C to stop)\n", serveAddr)
		return server.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", defaultListenAddr, "Address to listen on")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allowed-origin", nil, "Browser origin allowed to call the API (repeatable)")
	RootCmd.AddCommand(serveCmd)
}
