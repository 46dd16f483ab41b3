package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scholium/scholium/internal/ingest"
)

var (
	ingestMaxFiles int
	ingestWorkers  int
	ingestReduced  bool
	ingestNoEmbed  bool
)

func init() {
	ingestCmd.Flags().IntVar(&ingestMaxFiles, "max-files", 0, "Process at most N files (0 = no limit)")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "Worker count (default from config)")
	ingestCmd.Flags().BoolVar(&ingestReduced, "reduced", false, "Plaintext-only extraction for damaged collections")
	ingestCmd.Flags().BoolVar(&ingestNoEmbed, "no-embed", false, "Skip semantic indexing")
	rootCmd.AddCommand(ingestCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <directory>",
	Short: "Ingest a directory of PDFs into the library",
	Long: `Ingest every PDF in a directory. Files already in the library are
skipped, duplicates are recorded against the existing document, and
per-file failures are logged without stopping the batch. Re-running
the same command resumes where the previous run left off.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.close()

	opts := ingest.Options{
		Concurrency:  a.cfg.Ingest.Concurrency,
		MaxFiles:     a.cfg.Ingest.MaxFiles,
		Timeout:      a.cfg.Ingest.Timeout,
		ReducedChain: ingestReduced,
		SkipEmbed:    ingestNoEmbed,
	}
	if ingestWorkers > 0 {
		opts.Concurrency = ingestWorkers
	}
	if ingestMaxFiles > 0 {
		opts.MaxFiles = ingestMaxFiles
	}

	pipeOpts := []ingest.PipelineOption{ingest.WithLogger(logger)}
	if !ingestNoEmbed {
		pipeOpts = append(pipeOpts, ingest.WithEmbedder(a.embedder()))
	}
	pipeline := ingest.NewPipeline(a.store, a.archive, a.index, a.graph, pipeOpts...)

	report, err := pipeline.ProcessDirectory(cmd.Context(), args[0], opts)
	if err != nil {
		exitWithError(ExitError, "ingesting %s: %v", args[0], err)
	}

	if !ingestNoEmbed {
		if err := a.saveIndex(); err != nil {
			exitWithError(ExitError, "saving vector index: %v", err)
		}
	}

	if humanOutput {
		fmt.Printf("Scanned %d files in %s\n", report.Scanned, formatDuration(report.Duration))
		fmt.Printf("  succeeded:  %d\n", report.Succeeded)
		fmt.Printf("  partial:    %d\n", report.Partial)
		fmt.Printf("  duplicates: %d\n", report.SkippedDuplicates)
		fmt.Printf("  failed:     %d\n", report.Failed)
		fmt.Printf("  citations resolved: %d\n", report.Resolved)
		for _, fe := range report.Errors {
			fmt.Printf("  FAILED %s: %s\n", fe.Path, fe.Reason)
		}
	} else {
		outputJSON(report)
	}
	return nil
}
