package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/versegraph/internal/platform/logger"
	"github.com/yungbote/versegraph/internal/platform/neo4jdb"
)

// Entity node labels. Kept as an allowlist because Cypher cannot parameterize
// labels and the label string is interpolated into the statement.
const (
	LabelPerson = "Person"
	LabelPlace  = "Place"
)

type EntityStore struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewEntityStore(client *neo4jdb.Client, log *logger.Logger) *EntityStore {
	return &EntityStore{client: client, log: log.With("store", "EntityGraph")}
}

// UpsertMentions merges entity nodes by canonical name, unions their alias
// sets, and links each mention to its verse, chapter, and book in both
// directions. The verse and its containment context are matched, never
// created: a row whose verse is absent creates the entity node (with aliases)
// and nothing else. Returns how many rows fully linked.
//
// Row shape: name, aliases, verse_id.
func (s *EntityStore) UpsertMentions(ctx context.Context, label string, rows []map[string]any) (int64, error) {
	if label != LabelPerson && label != LabelPlace {
		return 0, fmt.Errorf("entity graph: unsupported label %q", label)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	// Alias union instead of overwrite: every alias ever observed for a name
	// is retained.
	cypher := fmt.Sprintf(`
UNWIND $rows AS row
MERGE (p:%[1]s {name: row.name})
  ON CREATE SET p.aliases = []
SET p.aliases = [a IN p.aliases WHERE NOT a IN row.aliases] + row.aliases
WITH p, row
MATCH (v:Verse {verseId: row.verse_id})
MATCH (v)-[:IN_CHAPTER]->(c:Chapter)
MATCH (c)-[:IN_BOOK]->(b:Book)
MERGE (v)-[:MENTIONS]->(p)
MERGE (p)-[:IN_VERSE]->(v)
MERGE (c)-[:MENTIONS]->(p)
MERGE (p)-[:IN_CHAPTER]->(c)
MERGE (b)-[:MENTIONS]->(p)
MERGE (p)-[:IN_BOOK]->(b)
RETURN count(row) AS linked
`, label)

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	linked, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"rows": rows})
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
		return 0, fmt.Errorf("entity graph: upsert %s mentions: %w", label, err)
	}
	n, _ := linked.(int64)
	return n, nil
}
