package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scholium/scholium/internal/store"
)

func init() {
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Remove a document from the library",
	Long: `Remove a document, its authorships, and its outgoing citations.
Incoming citations from other documents revert to unresolved rather
than disappearing. The archived original file and its vector are
removed as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.close()

	ctx := cmd.Context()
	doc, err := a.store.GetDocument(ctx, args[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			exitWithError(ExitDataError, "document not found: %s", args[0])
		}
		exitWithError(ExitError, "loading document: %v", err)
	}

	if err := a.store.DeleteDocument(ctx, doc.ID); err != nil {
		exitWithError(ExitError, "deleting document: %v", err)
	}

	a.index.Delete(doc.ID)
	if err := a.saveIndex(); err != nil {
		exitWithError(ExitError, "saving vector index: %v", err)
	}
	if err := a.archive.Delete(doc.FileHash); err != nil {
		logger.Warn("removing archived file", "hash", doc.FileHash, "error", err)
	}

	if humanOutput {
		fmt.Printf("Deleted %s\n", doc.ID)
	} else {
		outputJSON(StatusResponse{Status: "deleted"})
	}
	return nil
}
