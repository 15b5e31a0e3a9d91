package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/versegraph/internal/platform/logger"
	"github.com/yungbote/versegraph/internal/platform/neo4jdb"
)

// GraphVerse is a Verse node as it currently exists in the store, possibly
// with a blank or stale verseId.
type GraphVerse struct {
	ID   string
	Text string
}

type RepairStore struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewRepairStore(client *neo4jdb.Client, log *logger.Logger) *RepairStore {
	return &RepairStore{client: client, log: log.With("store", "RepairGraph")}
}

// FetchVerses returns every Verse node's id and text.
func (s *RepairStore) FetchVerses(ctx context.Context) ([]GraphVerse, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (v:Verse)
RETURN coalesce(v.verseId, "") AS id, coalesce(v.text, "") AS text
`, nil)
		if err != nil {
			return nil, err
		}
		var verses []GraphVerse
		for res.Next(ctx) {
			rec := res.Record()
			id, _ := rec.Get("id")
			text, _ := rec.Get("text")
			verses = append(verses, GraphVerse{
				ID:   id.(string),
				Text: text.(string),
			})
		}
		return verses, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("repair graph: fetch verses: %w", err)
	}
	return out.([]GraphVerse), nil
}

// RestoreIdentities runs the text-join pass: for each row, make sure the
// book and chapter exist, stamp the chapter display name, then assign the
// expected verseId to every Verse node carrying the row's text and reconnect
// it to its chapter. Duplicate-text rows deliberately hit all matches.
//
// Row shape: book, chapter, chapter_name, verse_id, text.
func (s *RepairStore) RestoreIdentities(ctx context.Context, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rows AS row
MERGE (b:Book {name: row.book})
MERGE (c:Chapter {number: row.chapter, book: row.book})
SET c.name = row.chapter_name
MERGE (c)-[:IN_BOOK]->(b)
MERGE (b)-[:HAS_CHAPTER]->(c)
WITH c, row
MATCH (v:Verse)
WHERE v.text = row.text
SET v.verseId = row.verse_id
MERGE (v)-[:IN_CHAPTER]->(c)
MERGE (c)-[:HAS_VERSE]->(v)
`, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("repair graph: restore identities: %w", err)
	}
	return nil
}

// EnsureStructure runs the structural pass for rows of (book, chapter,
// chapter_name, verse_id): Chapter-Book edges always, Verse-Chapter edges
// whenever the verse node resolves by id.
func (s *RepairStore) EnsureStructure(ctx context.Context, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rows AS row
MERGE (b:Book {name: row.book})
MERGE (c:Chapter {number: row.chapter, book: row.book})
MERGE (c)-[:IN_BOOK]->(b)
MERGE (b)-[:HAS_CHAPTER]->(c)
WITH c, row
MATCH (v:Verse {verseId: row.verse_id})
MERGE (v)-[:IN_CHAPTER]->(c)
MERGE (c)-[:HAS_VERSE]->(v)
`, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("repair graph: ensure structure: %w", err)
	}
	return nil
}
