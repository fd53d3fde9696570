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


package core

import "fmt"

// ValidateArticleRecord validates an ArticleRecord according to domain rules.
//
// Validation rules:
//   - Hash must not be empty
//   - Text must not be empty
//   - ReadingMinutes must not be negative
//
// NOT validated (policy, not shape):
//   - Quality.Checks (any content is a legal gate outcome)
//   - CreatedAt/UpdatedAt (populated by the store at persistence time)
func ValidateArticleRecord(record *ArticleRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidArticle)
	}

	if record.Hash == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyHash)
	}

	if record.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyText)
	}

	if record.ReadingMinutes < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrNegativeReadingMinutes)
	}

	return nil
}
