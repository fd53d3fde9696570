package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// HashFromContent derives a record's identity from its canonical URL and
// text body using BLAKE2b-256 hashing. Identical (canonicalURL, text)
// pairs always produce the same hash across runs and processes.
func HashFromContent(canonicalURL, text string) string {
	h, _ := blake2b.New(32, nil) // 32 bytes = 256 bits
	h.Write([]byte(canonicalURL))
	h.Write([]byte{0}) // separator so (a,bc) and (ab,c) differ
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Quality holds the quality-gate outcome for a record.
// Checks lists every failed check's reason in evaluation order;
// it is empty for accepted records.
type Quality struct {
	Checks []string
}

// ArticleRecord is the canonical stored form of an ingested text record.
// Hash is the content-addressed identity and globally unique within a store.
type ArticleRecord struct {
	Hash           string
	Title          string
	Description    string
	Text           string
	CanonicalURL   string
	Source         string
	Lang           string
	ReadingMinutes int
	Quality        Quality
	CreatedAt      time.Time // set once, at first successful persistence
	UpdatedAt      time.Time // advanced on every successful persistence
}

// RawArticle is the untrusted wire shape of a single input line.
// Only Text is required; nothing is validated or derived at this boundary.
type RawArticle struct {
	Text           string `json:"text"`
	Title          string `json:"title,omitempty"`
	Description    string `json:"description,omitempty"`
	URL            string `json:"url,omitempty"`
	Source         string `json:"source,omitempty"`
	Hash           string `json:"hash,omitempty"`
	Lang           string `json:"lang,omitempty"`
	ReadingMinutes int    `json:"readingMinutes,omitempty"`
}
