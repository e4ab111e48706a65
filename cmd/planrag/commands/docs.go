package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/clearplan/planrag/internal/cache"
	"github.com/clearplan/planrag/internal/storage"
)

func newDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage ingested documents",
	}
	cmd.AddCommand(
		newDocsListCmd(),
		newDocsActivateCmd(),
		newDocsDeactivateCmd(),
		newDocsDeleteCmd(),
	)
	return cmd
}

func newDocsListCmd() *cobra.Command {
	var (
		borough  string
		category string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var filters *storage.SearchFilters
			if borough != "" || category != "" {
				filters = &storage.SearchFilters{Borough: borough, Category: category}
			}

			docs, err := store.ListDocuments(context.Background(), filters, !all)
			if err != nil {
				return err
			}

			if len(docs) == 0 {
				cmd.Println("No documents found.")
				return nil
			}

			for _, doc := range docs {
				state := "active"
				if !doc.IsActive {
					state = "inactive"
				}
				cmd.Printf("%s  %s\n", doc.ID, doc.Name)
				cmd.Printf("    %s / %s, %d pages, %d chunks, %s\n",
					doc.Borough, doc.Category, doc.TotalPages, doc.TotalChunks, state)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&borough, "borough", "", "filter by borough")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().BoolVar(&all, "all", false, "include inactive documents")
	return cmd
}

func newDocsActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate [id]",
		Short: "Make a document visible to search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setDocumentActive(cmd, args[0], true)
		},
	}
}

func newDocsDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate [id]",
		Short: "Hide a document from search without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setDocumentActive(cmd, args[0], false)
		},
	}
}

func setDocumentActive(cmd *cobra.Command, id string, active bool) error {
	ctx := context.Background()
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	doc, err := store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := store.SetDocumentActive(ctx, id, active); err != nil {
		return err
	}
	invalidateBorough(cmd, store, string(doc.Borough))

	verb := "activated"
	if !active {
		verb = "deactivated"
	}
	cmd.Printf("Document %s %s\n", id, verb)
	return nil
}

func newDocsDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a document and all its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			doc, err := store.GetDocument(ctx, args[0])
			if err != nil {
				return err
			}

			if !force {
				cmd.Printf("This deletes %q and its %d chunks. Re-run with --force to confirm.\n",
					doc.Name, doc.TotalChunks)
				return nil
			}

			if err := store.DeleteDocument(ctx, args[0]); err != nil {
				return err
			}
			invalidateBorough(cmd, store, string(doc.Borough))
			cmd.Printf("Deleted %q\n", doc.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation step")
	return cmd
}

// invalidateBorough drops cached queries affected by a document
// change. Failures are reported but do not fail the command.
func invalidateBorough(cmd *cobra.Command, store storage.Storage, borough string) {
	n, err := cache.NewStoreCache(store, cfg.CacheTTL).InvalidateScope(context.Background(), borough)
	if err != nil {
		cmd.Printf("Warning: cache invalidation failed: %v\n", err)
		return
	}
	if n > 0 {
		cmd.Printf("Invalidated %d cached queries\n", n)
	}
}
