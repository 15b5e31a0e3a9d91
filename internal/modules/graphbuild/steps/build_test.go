package steps

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/platform/logger"
)

type fakeCorpusGraph struct {
	failBooks map[string]bool
	books     []string
	pairs     []domain.VersePair
	linkErr   error
}

func (f *fakeCorpusGraph) UpsertBookStructure(ctx context.Context, book *domain.Book) error {
	if f.failBooks[book.Name] {
		return fmt.Errorf("boom")
	}
	f.books = append(f.books, book.Name)
	return nil
}

func (f *fakeCorpusGraph) LinkNextVerses(ctx context.Context, pairs []domain.VersePair) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	f.pairs = append(f.pairs, pairs...)
	return nil
}

func buildCorpus() *domain.Corpus {
	return &domain.Corpus{Books: []domain.Book{
		{Name: "Genesis", Chapters: []domain.Chapter{
			{Number: 1, Verses: []domain.Verse{
				{Number: 1, Text: "In the beginning..."},
				{Number: 2, Text: "And the earth..."},
			}},
		}},
		{Name: "Exodus", Chapters: []domain.Chapter{
			{Number: 1, Verses: []domain.Verse{
				{Number: 1, Text: "Now these are the names..."},
			}},
		}},
		{Name: "Leviticus", Chapters: []domain.Chapter{
			{Number: 1, Verses: []domain.Verse{
				{Number: 1, Text: "And the LORD called..."},
			}},
		}},
	}}
}

func TestBuildGraphChainOrder(t *testing.T) {
	store := &fakeCorpusGraph{}
	out, err := BuildGraph(context.Background(), BuildDeps{Log: logger.NewNop(), Store: store}, buildCorpus())
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	want := []domain.VersePair{
		{Prev: "Genesis 1:1", Curr: "Genesis 1:2"},
		{Prev: "Genesis 1:2", Curr: "Exodus 1:1"},
		{Prev: "Exodus 1:1", Curr: "Leviticus 1:1"},
	}
	if !reflect.DeepEqual(store.pairs, want) {
		t.Fatalf("chain pairs = %v, want %v", store.pairs, want)
	}
	if out.BooksWritten != 3 || out.Verses != 4 || out.ChainPairs != 3 {
		t.Fatalf("output = %+v", out)
	}

	// Each verse appears at most once as Prev and once as Curr: the chain is
	// a single simple path.
	seenPrev := map[string]bool{}
	seenCurr := map[string]bool{}
	for _, p := range store.pairs {
		if seenPrev[p.Prev] || seenCurr[p.Curr] {
			t.Fatalf("chain fork at %v", p)
		}
		seenPrev[p.Prev] = true
		seenCurr[p.Curr] = true
	}
}

func TestBuildGraphGapsChainOverFailedBook(t *testing.T) {
	store := &fakeCorpusGraph{failBooks: map[string]bool{"Exodus": true}}
	out, err := BuildGraph(context.Background(), BuildDeps{Log: logger.NewNop(), Store: store}, buildCorpus())
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	// The failed book contributes no pairs and resets the pointer: no edge is
	// written into the book that follows it, so every emitted pair is a pair
	// the clean rerun emits too.
	want := []domain.VersePair{
		{Prev: "Genesis 1:1", Curr: "Genesis 1:2"},
	}
	if !reflect.DeepEqual(store.pairs, want) {
		t.Fatalf("chain pairs = %v, want %v", store.pairs, want)
	}
	if out.BooksFailed != 1 || out.BooksWritten != 2 {
		t.Fatalf("output = %+v", out)
	}
}

func TestBuildGraphRerunAfterFailureConverges(t *testing.T) {
	// Failed run followed by a clean run against the same store. Merged edges
	// accumulate across runs, so the union must equal the canonical chain with
	// no verse gaining a second outgoing or incoming edge.
	store := &fakeCorpusGraph{failBooks: map[string]bool{"Exodus": true}}
	if _, err := BuildGraph(context.Background(), BuildDeps{Log: logger.NewNop(), Store: store}, buildCorpus()); err != nil {
		t.Fatalf("failed run: %v", err)
	}
	store.failBooks = nil
	if _, err := BuildGraph(context.Background(), BuildDeps{Log: logger.NewNop(), Store: store}, buildCorpus()); err != nil {
		t.Fatalf("rerun: %v", err)
	}

	edges := map[domain.VersePair]bool{}
	for _, p := range store.pairs {
		edges[p] = true
	}
	outDeg := map[string]int{}
	inDeg := map[string]int{}
	for e := range edges {
		outDeg[e.Prev]++
		inDeg[e.Curr]++
	}
	for id, d := range outDeg {
		if d > 1 {
			t.Fatalf("%s has %d outgoing chain edges after rerun", id, d)
		}
	}
	for id, d := range inDeg {
		if d > 1 {
			t.Fatalf("%s has %d incoming chain edges after rerun", id, d)
		}
	}

	canonical := []domain.VersePair{
		{Prev: "Genesis 1:1", Curr: "Genesis 1:2"},
		{Prev: "Genesis 1:2", Curr: "Exodus 1:1"},
		{Prev: "Exodus 1:1", Curr: "Leviticus 1:1"},
	}
	if len(edges) != len(canonical) {
		t.Fatalf("merged edges = %v, want the canonical chain", edges)
	}
	for _, p := range canonical {
		if !edges[p] {
			t.Fatalf("canonical pair %v missing after rerun", p)
		}
	}
}

func TestBuildGraphAllBooksFailed(t *testing.T) {
	store := &fakeCorpusGraph{failBooks: map[string]bool{
		"Genesis": true, "Exodus": true, "Leviticus": true,
	}}
	if _, err := BuildGraph(context.Background(), BuildDeps{Log: logger.NewNop(), Store: store}, buildCorpus()); err == nil {
		t.Fatal("expected error when every book fails")
	}
}

func TestBuildGraphRerunProducesSamePairs(t *testing.T) {
	first := &fakeCorpusGraph{}
	if _, err := BuildGraph(context.Background(), BuildDeps{Log: logger.NewNop(), Store: first}, buildCorpus()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second := &fakeCorpusGraph{}
	if _, err := BuildGraph(context.Background(), BuildDeps{Log: logger.NewNop(), Store: second}, buildCorpus()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first.pairs, second.pairs) {
		t.Fatalf("reruns diverged: %v vs %v", first.pairs, second.pairs)
	}
}
