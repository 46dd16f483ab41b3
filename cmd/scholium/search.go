package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scholium/scholium/internal/query"
	"github.com/scholium/scholium/internal/vector"
)

var (
	searchSemantic bool
	searchAuthor   string
	searchFrom     int
	searchTo       int
	searchLimit    int
)

func init() {
	searchCmd.Flags().BoolVar(&searchSemantic, "semantic", false, "Rank by embedding similarity (requires Ollama)")
	searchCmd.Flags().StringVar(&searchAuthor, "author", "", "Restrict to documents by this author")
	searchCmd.Flags().IntVar(&searchFrom, "from", 0, "Earliest publication year")
	searchCmd.Flags().IntVar(&searchTo, "to", 0, "Latest publication year")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum results (default from config)")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the library",
	Long: `Search the library by keyword, optionally re-ranked by semantic
similarity. Filters can be combined with or without query text.

Examples:
  scholium search "protein folding"
  scholium search --semantic "methods similar to contrastive pretraining"
  scholium search --author Smith --from 2019 --to 2023
  scholium search "transformers" --semantic --limit 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.close()

	req := query.Request{
		Semantic: searchSemantic,
		Author:   searchAuthor,
		YearFrom: searchFrom,
		YearTo:   searchTo,
		Limit:    searchLimit,
	}
	if len(args) == 1 {
		req.Text = args[0]
	}
	if req.Limit <= 0 {
		req.Limit = a.cfg.Search.Limit
	}
	if req.Text == "" && req.Author == "" && req.YearFrom == 0 && req.YearTo == 0 {
		exitWithError(ExitError, "nothing to search for: give query text or a filter")
	}

	plannerOpts := []query.PlannerOption{
		query.WithWeights(query.Weights{
			Lexical:  a.cfg.Search.LexicalWeight,
			Semantic: a.cfg.Search.SemanticWeight,
		}),
	}
	if searchSemantic {
		plannerOpts = append(plannerOpts, query.WithEmbedder(a.embedder()))
	}
	planner := query.NewPlanner(a.store, a.index, a.graph, plannerOpts...)

	results, err := planner.Search(cmd.Context(), req)
	if err != nil {
		code := ExitError
		if errors.Is(err, query.ErrNoEmbedder) ||
			errors.Is(err, vector.ErrModelMismatch) ||
			errors.Is(err, vector.ErrDimensionMismatch) {
			code = ExitEmbedError
		}
		exitWithError(code, "searching: %v", err)
	}

	if humanOutput {
		if len(results) == 0 {
			fmt.Println("No documents found")
			return nil
		}
		fmt.Printf("Found %d documents:\n\n", len(results))
		for i, r := range results {
			fmt.Printf("%d. [%.3f] %s\n", i+1, r.Score, r.DocumentID)
			fmt.Printf("   %s\n\n", truncateString(r.Title, SummaryTitleLen))
		}
	} else {
		outputJSON(results)
	}
	return nil
}
