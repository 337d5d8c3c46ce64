package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/opsmind/internal/adapters/driving/mcp"
	"github.com/custodia-labs/opsmind/internal/core/domain"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server exposes an "ask" tool that answers from indexed documents with
citations, a "list_documents" tool and an opsmind://documents resource.
Every call runs as the identity given by --user and --role.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead. The HTTP listener does not
authenticate callers, so it runs as employee unless --role is given.

Examples:
  # Stdio mode (default, for desktop assistants)
  opsmind mcp serve --role employee

  # HTTP mode (for MCP Inspector, remote access)
  opsmind mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "opsmind": {
        "command": "/path/to/opsmind",
        "args": ["mcp", "serve", "--role", "employee"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if askService == nil {
		return errors.New("ask service not configured")
	}

	ports := &mcp.Ports{
		Ask:       askService,
		Document:  documentService,
		Principal: mcpPrincipal(cmd.Flags().Changed("role"), port),
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s as %s\n", addr, ports.Principal.Role)
		return server.RunHTTP(commandContext(cmd), addr)
	}

	return server.Run(commandContext(cmd))
}

// mcpPrincipal returns the identity every MCP call runs as. Over HTTP the
// role falls back to employee unless one was given explicitly.
func mcpPrincipal(roleExplicit bool, port int) domain.Principal {
	p := capabilities().Principal
	if port > 0 && !roleExplicit {
		p.Role = domain.RoleEmployee
	}
	return p
}
