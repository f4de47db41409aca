package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	inframcp "github.com/felixgeelhaar/notewise/internal/infrastructure/mcp"
)

var (
	mcpTransport string
	mcpAddr      string
	mcpOrigins   []string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Notewise MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("NOTEWISE_SKIP_MCP_START") == "true" {
			return nil
		}
		root, err := getProjectRoot()
		if err != nil {
			return err
		}

		inframcp.Version = Version
		inframcp.BuildCommit = Commit
		inframcp.BuildDate = Date

		server, err := inframcp.NewServer(root, serviceOptions())
		if err != nil {
			return MapError(err)
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		switch strings.ToLower(mcpTransport) {
		case "stdio", "":
			return server.ServeStdio(ctx)
		case "http":
			return server.ServeHTTP(ctx, mcpAddr, mcpOrigins...)
		case "ws", "websocket":
			return server.ServeWebSocket(ctx, mcpAddr)
		default:
			return fmt.Errorf("unsupported transport: %s", mcpTransport)
		}
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "Transport to use (stdio, http, ws)")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", defaultListenAddr, "Address for http/ws transports")
	mcpCmd.Flags().StringSliceVar(&mcpOrigins, "allowed-origin", nil, "Browser origin allowed to use the http transport (repeatable)")
	RootCmd.AddCommand(mcpCmd)
}
