package service

import (
	"context"
	"sort"
	"strings"

	"alightgram/model"
)

// sortNewestFirst orders by creation time, newest first. The stores give no
// ordering guarantee, so every listing goes through here.
func sortNewestFirst(projects []models.Project) []models.Project {
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects
}

// matchesQuery is a case-insensitive substring match on the title or any tag.
func matchesQuery(project models.Project, query string) bool {
	if strings.Contains(strings.ToLower(project.Title), query) {
		return true
	}
	for _, tag := range project.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// SearchFeed filters the public feed. An empty query returns the whole feed.
func (v *Visibility) SearchFeed(ctx context.Context, query string) ([]models.Project, error) {
	feed, err := v.ListFeed(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return feed, nil
	}

	matches := make([]models.Project, 0, len(feed))
	for _, p := range feed {
		if matchesQuery(p, query) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}
