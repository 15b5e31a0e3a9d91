package steps

import (
	"context"
	"fmt"

	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/platform/logger"
)

// CorpusGraph is the slice of the graph layer the build step writes through.
type CorpusGraph interface {
	UpsertBookStructure(ctx context.Context, book *domain.Book) error
	LinkNextVerses(ctx context.Context, pairs []domain.VersePair) error
}

type BuildDeps struct {
	Log   *logger.Logger
	Store CorpusGraph
}

type BuildOutput struct {
	BooksWritten int
	BooksFailed  int
	Verses       int
	ChainPairs   int
	ChainErrors  int
}

const chainLinkBatchSize = 500

// BuildGraph upserts the full corpus tree and threads the NEXT_VERSE chain
// through it in canonical reading order.
//
// Only canonical pairs are ever emitted: when a book fails, its verses
// produce no pairs and the chain pointer resets, so the link into the next
// successful book is skipped rather than bridged. The chain carries a gap
// until a clean re-run closes it with the canonical pairs. A bridge edge
// would outlive the re-run (merges never remove relationships) and leave the
// boundary verses with two chain edges.
func BuildGraph(ctx context.Context, deps BuildDeps, corpus *domain.Corpus) (BuildOutput, error) {
	var out BuildOutput
	if corpus == nil || len(corpus.Books) == 0 {
		return out, fmt.Errorf("build graph: empty corpus")
	}

	var pairs []domain.VersePair
	prev := ""

	for i := range corpus.Books {
		book := &corpus.Books[i]

		if err := deps.Store.UpsertBookStructure(ctx, book); err != nil {
			out.BooksFailed++
			prev = ""
			deps.Log.Error("book upsert failed, chain gapped until rerun", "book", book.Name, "error", err)
			continue
		}
		out.BooksWritten++

		for _, ch := range book.Chapters {
			for _, v := range ch.Verses {
				id := domain.VerseID(book.Name, ch.Number, v.Number)
				if prev != "" {
					pairs = append(pairs, domain.VersePair{Prev: prev, Curr: id})
				}
				prev = id
				out.Verses++
			}
		}
		deps.Log.Info("book uploaded", "book", book.Name)
	}

	if out.BooksWritten == 0 {
		return out, fmt.Errorf("build graph: all %d books failed", out.BooksFailed)
	}

	for start := 0; start < len(pairs); start += chainLinkBatchSize {
		end := start + chainLinkBatchSize
		if end > len(pairs) {
			end = len(pairs)
		}
		batch := pairs[start:end]
		if err := deps.Store.LinkNextVerses(ctx, batch); err != nil {
			out.ChainErrors++
			deps.Log.Error("chain link batch failed", "from", batch[0].Prev, "size", len(batch), "error", err)
			continue
		}
		out.ChainPairs += len(batch)
	}

	return out, nil
}
