// Package graph holds the Neo4j writers. Every statement is a MERGE-based
// upsert so re-running any pipeline stage converges on the same graph.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/platform/logger"
	"github.com/yungbote/versegraph/internal/platform/neo4jdb"
)

type CorpusStore struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewCorpusStore(client *neo4jdb.Client, log *logger.Logger) *CorpusStore {
	return &CorpusStore{client: client, log: log.With("store", "CorpusGraph")}
}

// schemaStatements is what InitSchema applies. The verse id gets a plain
// index, not a uniqueness constraint: identity repair applies one id to every
// node sharing a verse text, and a constraint would abort those restore
// batches.
var schemaStatements = []string{
	`CREATE CONSTRAINT book_name_unique IF NOT EXISTS FOR (b:Book) REQUIRE b.name IS UNIQUE`,
	`CREATE INDEX verse_id_idx IF NOT EXISTS FOR (v:Verse) ON (v.verseId)`,
	`CREATE CONSTRAINT person_name_unique IF NOT EXISTS FOR (p:Person) REQUIRE p.name IS UNIQUE`,
	`CREATE CONSTRAINT place_name_unique IF NOT EXISTS FOR (p:Place) REQUIRE p.name IS UNIQUE`,
	`CREATE CONSTRAINT theme_name_unique IF NOT EXISTS FOR (t:Theme) REQUIRE t.name IS UNIQUE`,
	`CREATE INDEX chapter_book_number_idx IF NOT EXISTS FOR (c:Chapter) ON (c.book, c.number)`,
	`CREATE INDEX verse_text_idx IF NOT EXISTS FOR (v:Verse) ON (v.text)`,
}

// InitSchema creates uniqueness constraints and indexes. Best-effort: a
// restricted user may not be allowed to, and the writers work without them.
func (s *CorpusStore) InitSchema(ctx context.Context) {
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			s.log.Warn("neo4j schema init failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
}

// UpsertBookStructure writes one book's full containment subtree in a single
// transaction: the Book node, every Chapter with HAS_CHAPTER/IN_BOOK, and
// every Verse with HAS_VERSE/IN_CHAPTER. Verse number and text are set only
// on first creation so later enrichment is never clobbered.
func (s *CorpusStore) UpsertBookStructure(ctx context.Context, book *domain.Book) error {
	if book == nil || book.Name == "" {
		return fmt.Errorf("corpus graph: empty book")
	}

	chapters := make([]map[string]any, 0, len(book.Chapters))
	verses := make([]map[string]any, 0, 64)
	for _, ch := range book.Chapters {
		chapters = append(chapters, map[string]any{
			"number": int64(ch.Number),
		})
		for _, v := range ch.Verses {
			verses = append(verses, map[string]any{
				"chapter":  int64(ch.Number),
				"verse_id": domain.VerseID(book.Name, ch.Number, v.Number),
				"number":   int64(v.Number),
				"text":     v.Text,
			})
		}
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (b:Book {name: $book})
`, map[string]any{"book": book.Name})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(chapters) > 0 {
			res, err = tx.Run(ctx, `
UNWIND $chapters AS ch
MATCH (b:Book {name: $book})
MERGE (c:Chapter {number: ch.number, book: $book})
MERGE (b)-[:HAS_CHAPTER]->(c)
MERGE (c)-[:IN_BOOK]->(b)
`, map[string]any{"book": book.Name, "chapters": chapters})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(verses) > 0 {
			res, err = tx.Run(ctx, `
UNWIND $verses AS row
MATCH (c:Chapter {number: row.chapter, book: $book})
MERGE (v:Verse {verseId: row.verse_id})
  ON CREATE SET v.number = row.number, v.text = row.text
MERGE (c)-[:HAS_VERSE]->(v)
MERGE (v)-[:IN_CHAPTER]->(c)
`, map[string]any{"book": book.Name, "verses": verses})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("corpus graph: upsert book %q: %w", book.Name, err)
	}
	return nil
}

// LinkNextVerses merges the NEXT_VERSE edges for the given reading-order
// pairs. Both endpoints are matched, never created: a pair whose verse write
// failed earlier simply does not link.
func (s *CorpusStore) LinkNextVerses(ctx context.Context, pairs []domain.VersePair) error {
	if len(pairs) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(pairs))
	for _, p := range pairs {
		if p.Prev == "" || p.Curr == "" || p.Prev == p.Curr {
			continue
		}
		rows = append(rows, map[string]any{"prev_id": p.Prev, "curr_id": p.Curr})
	}
	if len(rows) == 0 {
		return nil
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rows AS row
MATCH (v1:Verse {verseId: row.prev_id})
MATCH (v2:Verse {verseId: row.curr_id})
MERGE (v1)-[:NEXT_VERSE]->(v2)
`, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("corpus graph: link next verses: %w", err)
	}
	return nil
}

// SetVerseEmbeddings stores the embedding vector on existing Verse nodes and
// reports how many nodes matched.
func (s *CorpusStore) SetVerseEmbeddings(ctx context.Context, rows []map[string]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	updated, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rows AS row
MATCH (v:Verse {verseId: row.verse_id})
SET v.embedding = row.embedding
RETURN count(v) AS updated
`, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		n, _ := rec.Get("updated")
		return n, nil
	})
	if err != nil {
		return 0, fmt.Errorf("corpus graph: set embeddings: %w", err)
	}
	n, _ := updated.(int64)
	return n, nil
}
