// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package export serializes the article store into a static JSON
// document. It reads through the repository interface only and has no
// write path of its own.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// article is the export wire shape, matching the ingest field names.
type article struct {
	Hash           string    `json:"hash"`
	Title          string    `json:"title,omitempty"`
	Description    string    `json:"description,omitempty"`
	Text           string    `json:"text"`
	CanonicalURL   string    `json:"canonicalUrl,omitempty"`
	Source         string    `json:"source,omitempty"`
	Lang           string    `json:"lang,omitempty"`
	ReadingMinutes int       `json:"readingMinutes,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Exporter dumps every stored record as one JSON array.
type Exporter struct {
	repository storage.ArticleRepository
	logger     *slog.Logger
}

// NewExporter creates an exporter reading from the given repository.
func NewExporter(repository storage.ArticleRepository, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		repository: repository,
		logger:     logger,
	}
}

// Export writes all stored records to w as an indented JSON array and
// returns the number of records written. Ordering follows the
// repository's scan order, which is stable for a given store.
func (e *Exporter) Export(ctx context.Context, w io.Writer) (int, error) {
	articles := make([]article, 0)
	err := e.repository.ScanArticles(ctx, func(record *core.ArticleRecord) error {
		articles = append(articles, article{
			Hash:           record.Hash,
			Title:          record.Title,
			Description:    record.Description,
			Text:           record.Text,
			CanonicalURL:   record.CanonicalURL,
			Source:         record.Source,
			Lang:           record.Lang,
			ReadingMinutes: record.ReadingMinutes,
			CreatedAt:      record.CreatedAt,
			UpdatedAt:      record.UpdatedAt,
		})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan store: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(articles); err != nil {
		return 0, fmt.Errorf("encode export: %w", err)
	}

	e.logger.Info("export complete", "records", len(articles))
	return len(articles), nil
}
