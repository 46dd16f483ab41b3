package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/scholium/scholium/internal/document"
)

// Output formatting constants.
const (
	SummaryTitleLen = 70 // Title truncation in result summaries
	MaxAuthorsShown = 3  // Authors listed before "et al."
)

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatAuthorsShort formats authors with "et al." past MaxAuthorsShown.
func formatAuthorsShort(authors []document.Author) string {
	if len(authors) == 0 {
		return ""
	}
	var names []string
	for i, a := range authors {
		if i >= MaxAuthorsShown {
			names = append(names, "et al.")
			break
		}
		names = append(names, a.Display())
	}
	return strings.Join(names, ", ")
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// printDocSummary prints one numbered document summary line group.
func printDocSummary(num int, doc *document.Document) {
	fmt.Printf("[%d] %s\n", num, doc.ID)
	fmt.Printf("    %s\n", truncateString(doc.Title, SummaryTitleLen))
	if authors := formatAuthorsShort(doc.Authors); authors != "" {
		if doc.Year > 0 {
			fmt.Printf("    %s (%d)\n", authors, doc.Year)
		} else {
			fmt.Printf("    %s\n", authors)
		}
	} else if doc.Year > 0 {
		fmt.Printf("    (%d)\n", doc.Year)
	}
	fmt.Println()
}
