package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/postkit/pkg/drafts"
)

// draftsCommand creates the draft management command.
func (c *CLI) draftsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect and clean up saved drafts",
	}

	cmd.AddCommand(c.draftsListCommand())
	cmd.AddCommand(c.draftsGetCommand())
	cmd.AddCommand(c.draftsDeleteCommand())
	cmd.AddCommand(c.draftsPurgeCommand())

	return cmd
}

// withDrafts opens the draft store for the duration of f.
func (c *CLI) withDrafts(ctx context.Context, f func(*drafts.Service) error) error {
	svc, st, err := c.openDrafts(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return f(svc)
}

func (c *CLI) draftsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the stored draft ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDrafts(cmd.Context(), func(svc *drafts.Service) error {
				ids, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					printInfo("No drafts")
					return nil
				}
				for _, id := range ids {
					printKeyValue("draft", id)
				}
				return nil
			})
		},
	}
}

func (c *CLI) draftsGetCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Print the export of a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDrafts(cmd.Context(), func(svc *drafts.Service) error {
				e, err := svc.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(output, e)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (c *CLI) draftsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete drafts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDrafts(cmd.Context(), func(svc *drafts.Service) error {
				for _, id := range args {
					if err := svc.Delete(cmd.Context(), id); err != nil {
						return err
					}
				}
				printSuccess("Deleted %s", plural(len(args), "draft"))
				return nil
			})
		},
	}
}

func (c *CLI) draftsPurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove expired drafts",
		Long: `Remove expired drafts from stores that keep them until purged (file and
sqlite). Redis and MongoDB expire drafts on their own.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDrafts(cmd.Context(), func(svc *drafts.Service) error {
				n, err := svc.Purge(cmd.Context())
				if err != nil {
					return err
				}
				printSuccess("Purged %s", plural(n, "expired draft"))
				return nil
			})
		},
	}
}
