package graph

import (
	"context"
	"sort"

	"github.com/scholium/scholium/internal/store"
)

// CoAuthor is a collaborator entry in an author profile.
type CoAuthor struct {
	ID              string `json:"id"`
	Display         string `json:"display"`
	SharedDocuments int    `json:"shared_documents"`
}

// DocumentSummary is the per-document slice of an author profile.
type DocumentSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Year          int    `json:"year,omitempty"`
	CitationCount int    `json:"citation_count"`
}

// Profile aggregates an author's documents, collaborators, and received
// citations.
type Profile struct {
	Author        store.Author      `json:"author"`
	Documents     []DocumentSummary `json:"documents"`
	CoAuthors     []CoAuthor        `json:"co_authors"`
	CitationCount int               `json:"citation_count"`
}

// AuthorProfile resolves a name (or recorded alias) to an author and
// aggregates their profile. Returns store.ErrNotFound when the name misses.
func (e *Engine) AuthorProfile(ctx context.Context, name string) (*Profile, error) {
	author, err := e.store.FindAuthor(ctx, name)
	if err != nil {
		return nil, err
	}

	docs, err := e.store.AuthorDocuments(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{Author: *author}
	for _, d := range docs {
		count, err := e.store.CitationCount(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		profile.CitationCount += count
		profile.Documents = append(profile.Documents, DocumentSummary{
			ID:            d.ID,
			Title:         d.Title,
			Year:          d.Year,
			CitationCount: count,
		})
	}

	g, err := e.CoAuthorGraph(ctx)
	if err != nil {
		return nil, err
	}
	for _, edge := range g.Edges {
		var other string
		switch author.ID {
		case edge.A:
			other = edge.B
		case edge.B:
			other = edge.A
		default:
			continue
		}
		profile.CoAuthors = append(profile.CoAuthors, CoAuthor{
			ID:              other,
			Display:         g.display[other],
			SharedDocuments: edge.Weight,
		})
	}
	sort.Slice(profile.CoAuthors, func(i, j int) bool {
		if profile.CoAuthors[i].SharedDocuments != profile.CoAuthors[j].SharedDocuments {
			return profile.CoAuthors[i].SharedDocuments > profile.CoAuthors[j].SharedDocuments
		}
		return profile.CoAuthors[i].ID < profile.CoAuthors[j].ID
	})

	return profile, nil
}
