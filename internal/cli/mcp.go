package cli

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/matzehuels/postkit/internal/mcp"
	"github.com/matzehuels/postkit/pkg/editor"
)

func (c *CLI) mcpCommand() *cobra.Command {
	var noStore bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve editing tools over MCP (stdio)",
		Long: `Serve editing sessions as MCP tools on stdin/stdout, for use by agents.
Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			src, err := c.loadPresets(cfg)
			if err != nil {
				return err
			}
			deps := mcpserver.Deps{
				Sessions: editor.NewRegistry(c.editorOptions(cfg, src), cfg.DragOptions()...),
				Presets:  src,
				Width:    cfg.Post.Width,
				Logger:   c.Logger,
			}
			if !noStore {
				svc, st, err := c.openDrafts(cmd.Context())
				if err != nil {
					return err
				}
				defer st.Close()
				deps.Drafts = svc
			}
			return mcpserver.New(deps).ServeStdio()
		},
	}

	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not connect to the draft store")

	return cmd
}
