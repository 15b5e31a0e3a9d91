package domain

import (
	"reflect"
	"testing"
)

func testCorpus() *Corpus {
	return &Corpus{Books: []Book{
		{
			Name: "Genesis",
			Chapters: []Chapter{
				{Number: 1, Verses: []Verse{
					{Number: 1, Text: "In the beginning..."},
					{Number: 2, Text: "And the earth..."},
				}},
				{Number: 2, Verses: []Verse{
					{Number: 1, Text: "Thus the heavens..."},
				}},
			},
		},
		{
			Name: "Exodus",
			Chapters: []Chapter{
				{Number: 1, Verses: []Verse{
					{Number: 1, Text: "Now these are the names..."},
				}},
			},
		},
	}}
}

func TestVerseIDFormat(t *testing.T) {
	got := VerseID("Genesis", 1, 1)
	if got != "Genesis 1:1" {
		t.Fatalf("VerseID = %q, want %q", got, "Genesis 1:1")
	}
	got = VerseID("1 Kings", 22, 53)
	if got != "1 Kings 22:53" {
		t.Fatalf("VerseID = %q, want %q", got, "1 Kings 22:53")
	}
}

func TestParseVerseIDRoundTrip(t *testing.T) {
	cases := []struct {
		book    string
		chapter int
		verse   int
	}{
		{"Genesis", 1, 1},
		{"1 Kings", 22, 53},
		{"Song of Solomon", 8, 14},
	}
	for _, tc := range cases {
		id := VerseID(tc.book, tc.chapter, tc.verse)
		book, chapter, verse, err := ParseVerseID(id)
		if err != nil {
			t.Fatalf("ParseVerseID(%q): %v", id, err)
		}
		if book != tc.book || chapter != tc.chapter || verse != tc.verse {
			t.Fatalf("ParseVerseID(%q) = (%q, %d, %d), want (%q, %d, %d)",
				id, book, chapter, verse, tc.book, tc.chapter, tc.verse)
		}
	}
}

func TestParseVerseIDInvalid(t *testing.T) {
	for _, id := range []string{"", "Genesis", "Genesis 1", "1:1", "Genesis x:1", "Genesis 1:x"} {
		if _, _, _, err := ParseVerseID(id); err == nil {
			t.Fatalf("ParseVerseID(%q): expected error", id)
		}
	}
}

func TestWalkOrder(t *testing.T) {
	walk := testCorpus().Walk()

	wantIDs := []string{"Genesis 1:1", "Genesis 1:2", "Genesis 2:1", "Exodus 1:1"}
	if len(walk) != len(wantIDs) {
		t.Fatalf("walk length = %d, want %d", len(walk), len(wantIDs))
	}
	for i, want := range wantIDs {
		if walk[i].ID != want {
			t.Fatalf("walk[%d].ID = %q, want %q", i, walk[i].ID, want)
		}
	}
	if walk[0].Text != "In the beginning..." || walk[0].Book != "Genesis" || walk[0].Chapter != 1 {
		t.Fatalf("walk[0] context wrong: %+v", walk[0])
	}
}

func TestByID(t *testing.T) {
	c := testCorpus()
	byID := c.ByID()
	if len(byID) != c.VerseCount() {
		t.Fatalf("ByID size = %d, want %d", len(byID), c.VerseCount())
	}
	v, ok := byID["Genesis 1:2"]
	if !ok || v.Text != "And the earth..." {
		t.Fatalf("ByID lookup wrong: %+v ok=%v", v, ok)
	}
}

func TestTextIndexDuplicates(t *testing.T) {
	c := testCorpus()
	c.Books[1].Chapters[0].Verses = append(c.Books[1].Chapters[0].Verses,
		Verse{Number: 2, Text: "In the beginning..."})

	index := c.TextIndex()
	got := index["In the beginning..."]
	want := []string{"Genesis 1:1", "Exodus 1:2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("duplicate text ids = %v, want %v", got, want)
	}
}
