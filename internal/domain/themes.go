package domain

// NoiseLabel marks embeddings that density clustering left unassigned. Noise
// never receives a Theme node or a HAS_THEME edge.
const NoiseLabel = -1

// EmbeddingRecord is one verse's text and vector as stored in the local
// embeddings backup file.
type EmbeddingRecord struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// EmbeddingSet maps composite verse id to its embedding record.
type EmbeddingSet map[string]EmbeddingRecord

// ClusterAssignments maps composite verse id to an integer cluster label,
// NoiseLabel for unclustered verses.
type ClusterAssignments map[string]int

// ThemeLink is a candidate verse -> theme edge produced by the similarity
// linker. Multi-label: one verse may appear with several themes.
type ThemeLink struct {
	VerseID string
	Theme   string
}
