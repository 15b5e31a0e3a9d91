package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/platform/logger"
	"github.com/yungbote/versegraph/internal/platform/neo4jdb"
)

type ThemeStore struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewThemeStore(client *neo4jdb.Client, log *logger.Logger) *ThemeStore {
	return &ThemeStore{client: client, log: log.With("store", "ThemeGraph")}
}

// CreateThemes merges one Theme node per distinct label.
func (s *ThemeStore) CreateThemes(ctx context.Context, labels []string) error {
	if len(labels) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(labels))
	distinct := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		distinct = append(distinct, l)
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $labels AS label
MERGE (:Theme {name: label})
`, map[string]any{"labels": distinct})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("theme graph: create themes: %w", err)
	}
	return nil
}

// LinkThemes merges HAS_THEME edges for the candidate links. Both endpoints
// are matched, never created. Returns how many links resolved.
func (s *ThemeStore) LinkThemes(ctx context.Context, links []domain.ThemeLink) (int64, error) {
	if len(links) == 0 {
		return 0, nil
	}

	rows := make([]map[string]any, 0, len(links))
	for _, l := range links {
		if l.VerseID == "" || l.Theme == "" {
			continue
		}
		rows = append(rows, map[string]any{"verse_id": l.VerseID, "theme": l.Theme})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	linked, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rows AS row
MATCH (v:Verse {verseId: row.verse_id})
MATCH (t:Theme {name: row.theme})
MERGE (v)-[:HAS_THEME]->(t)
RETURN count(row) AS linked
`, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		n, _ := rec.Get("linked")
		return n, nil
	})
	if err != nil {
		return 0, fmt.Errorf("theme graph: link themes: %w", err)
	}
	n, _ := linked.(int64)
	return n, nil
}
