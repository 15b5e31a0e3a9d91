package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Corpus is the parsed book hierarchy. Verses are the leaf unit; every verse
// is addressable by its composite id "{book} {chapter}:{verse}".
type Corpus struct {
	Books []Book `json:"books"`
}

type Book struct {
	Name     string    `json:"name"`
	Chapters []Chapter `json:"chapters"`
}

type Chapter struct {
	Number int     `json:"chapter"`
	Verses []Verse `json:"verses"`
}

type Verse struct {
	Number int    `json:"verse"`
	Text   string `json:"text"`
}

// VerseID derives the canonical composite id. The exact format is load-bearing:
// it is the graph key for Verse nodes.
func VerseID(book string, chapter, verse int) string {
	return fmt.Sprintf("%s %d:%d", book, chapter, verse)
}

// ChapterName is the display name stored on Chapter nodes during repair.
func ChapterName(book string, chapter int) string {
	return fmt.Sprintf("%s %d", book, chapter)
}

// ParseVerseID recovers (book, chapter, verse) from a composite id. Book names
// may themselves contain spaces ("1 Kings"), so the split anchors on the last
// space and the colon after it.
func ParseVerseID(id string) (book string, chapter, verse int, err error) {
	colon := strings.LastIndex(id, ":")
	if colon < 0 {
		return "", 0, 0, fmt.Errorf("parse verse id %q: missing colon", id)
	}
	space := strings.LastIndex(id[:colon], " ")
	if space < 0 {
		return "", 0, 0, fmt.Errorf("parse verse id %q: missing book separator", id)
	}
	book = id[:space]
	if book == "" {
		return "", 0, 0, fmt.Errorf("parse verse id %q: empty book", id)
	}
	chapter, err = strconv.Atoi(id[space+1 : colon])
	if err != nil {
		return "", 0, 0, fmt.Errorf("parse verse id %q: chapter: %w", id, err)
	}
	verse, err = strconv.Atoi(id[colon+1:])
	if err != nil {
		return "", 0, 0, fmt.Errorf("parse verse id %q: verse: %w", id, err)
	}
	return book, chapter, verse, nil
}

// VerseRef is one verse in canonical reading order with its full context.
type VerseRef struct {
	ID      string
	Book    string
	Chapter int
	Number  int
	Text    string
}

// Walk returns every verse in canonical reading order: verse order within a
// chapter, chapter order within a book, book order within the corpus.
func (c *Corpus) Walk() []VerseRef {
	var out []VerseRef
	for _, b := range c.Books {
		for _, ch := range b.Chapters {
			for _, v := range ch.Verses {
				out = append(out, VerseRef{
					ID:      VerseID(b.Name, ch.Number, v.Number),
					Book:    b.Name,
					Chapter: ch.Number,
					Number:  v.Number,
					Text:    v.Text,
				})
			}
		}
	}
	return out
}

// VersePair is one NEXT_VERSE edge: Prev immediately precedes Curr in
// canonical reading order.
type VersePair struct {
	Prev string
	Curr string
}

// ByID indexes the corpus walk by composite id.
func (c *Corpus) ByID() map[string]VerseRef {
	walk := c.Walk()
	out := make(map[string]VerseRef, len(walk))
	for _, v := range walk {
		out[v.ID] = v
	}
	return out
}

// TextIndex maps verse text to the composite ids carrying that text. Most
// texts map to a single id; duplicates are possible and must be surfaced by
// repair rather than silently collapsed.
func (c *Corpus) TextIndex() map[string][]string {
	walk := c.Walk()
	out := make(map[string][]string, len(walk))
	for _, v := range walk {
		out[v.Text] = append(out[v.Text], v.ID)
	}
	return out
}

// VerseCount counts leaf verses without materializing the walk.
func (c *Corpus) VerseCount() int {
	n := 0
	for _, b := range c.Books {
		for _, ch := range b.Chapters {
			n += len(ch.Verses)
		}
	}
	return n
}
