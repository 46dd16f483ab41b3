package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scholium/scholium/internal/graph"
)

var analyzeLimit int

func init() {
	analyzeCmd.PersistentFlags().IntVar(&analyzeLimit, "limit", 10, "Maximum entries to report")
	analyzeCmd.AddCommand(analyzeMostCitedCmd)
	analyzeCmd.AddCommand(analyzeCommunitiesCmd)
	analyzeCmd.AddCommand(analyzeCollabCmd)
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Citation and co-authorship analysis",
}

var analyzeMostCitedCmd = &cobra.Command{
	Use:   "most-cited",
	Short: "Rank documents by citations received within the library",
	Args:  cobra.NoArgs,
	RunE:  runAnalyzeMostCited,
}

func runAnalyzeMostCited(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.close()

	cited, err := a.graph.MostCited(cmd.Context(), analyzeLimit)
	if err != nil {
		exitWithError(ExitError, "ranking citations: %v", err)
	}

	if humanOutput {
		if len(cited) == 0 {
			fmt.Println("No resolved citations yet")
			return nil
		}
		for i, c := range cited {
			fmt.Printf("%d. (%d citations) %s\n", i+1, c.Count, truncateString(c.Title, SummaryTitleLen))
			fmt.Printf("   %s\n", c.DocumentID)
		}
	} else {
		outputJSON(cited)
	}
	return nil
}

var analyzeCommunitiesCmd = &cobra.Command{
	Use:   "communities",
	Short: "Group authors by co-authorship clusters",
	Args:  cobra.NoArgs,
	RunE:  runAnalyzeCommunities,
}

func runAnalyzeCommunities(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.close()

	g, err := a.graph.CoAuthorGraph(cmd.Context())
	if err != nil {
		exitWithError(ExitError, "building co-authorship graph: %v", err)
	}
	communities := graph.Communities(g)
	if analyzeLimit > 0 && len(communities) > analyzeLimit {
		communities = communities[:analyzeLimit]
	}

	if humanOutput {
		if len(communities) == 0 {
			fmt.Println("No co-authorships yet")
			return nil
		}
		for i, c := range communities {
			fmt.Printf("Community %d (%d authors):\n", i+1, len(c.Authors))
			fmt.Printf("  %s\n", strings.Join(c.Names, ", "))
		}
	} else {
		outputJSON(communities)
	}
	return nil
}

var analyzeCollabCmd = &cobra.Command{
	Use:   "collaborations",
	Short: "Rank author pairs by shared documents",
	Args:  cobra.NoArgs,
	RunE:  runAnalyzeCollab,
}

func runAnalyzeCollab(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.close()

	edges, err := a.graph.StrongestCollaborations(cmd.Context(), analyzeLimit)
	if err != nil {
		exitWithError(ExitError, "ranking collaborations: %v", err)
	}

	if humanOutput {
		if len(edges) == 0 {
			fmt.Println("No co-authorships yet")
			return nil
		}
		for i, e := range edges {
			fmt.Printf("%d. %s + %s (%d shared)\n", i+1, e.NameA, e.NameB, e.Weight)
		}
	} else {
		outputJSON(edges)
	}
	return nil
}
