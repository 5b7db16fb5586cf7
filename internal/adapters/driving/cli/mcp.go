package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quill/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search the
manuscript and read document versions.

Tools: search, get_document, list_documents, and ask when an LLM is configured.
Resources: quill://documents and quill://documents/{docId}.

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead.

Examples:
  # Stdio mode (for desktop assistants)
  quill mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  quill mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "quill": {
        "command": "/path/to/quill",
        "args": ["mcp", "serve"]
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

	mcp.Version = version
	server, err := mcp.NewServer(mcpPorts())
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(commandContext(cmd), addr)
	}

	return server.Run(commandContext(cmd))
}

// mcpPorts collects the services the MCP server exposes. A nil asker
// leaves the ask tool unregistered.
func mcpPorts() *mcp.Ports {
	return &mcp.Ports{
		Retriever: retriever,
		Versions:  versionRepo,
		Asker:     asker,
	}
}
