package badger

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Key prefixes for different data types
const (
	articleRecordPrefix = "artrec"
	articleURLPrefix    = "artrecu"
	articleDatePrefix   = "artrecd"
)

// makeArticleKey generates a key for an article record by hash.
func makeArticleKey(hash string) []byte {
	return []byte(fmt.Sprintf("%s:%s", articleRecordPrefix, hash))
}

// makeArticleURLKey generates a key for the canonical URL index.
func makeArticleURLKey(canonicalURL string) []byte {
	return []byte(fmt.Sprintf("%s:%s", articleURLPrefix, canonicalURL))
}

// makeArticleDateKey generates a composite key for the update-time index.
// Format: prefix:timestamp:hash
func makeArticleDateKey(timestamp time.Time, hash string) []byte {
	prefix := articleDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 + len(hash) // 8 bytes for timestamp
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	copy(buf[offset:], hash)
	return buf
}

// makePartialArticleDateKey generates a partial key for update-time scans.
// Format: prefix:timestamp
func makePartialArticleDateKey(timestamp time.Time) []byte {
	prefix := articleDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for timestamp
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}
