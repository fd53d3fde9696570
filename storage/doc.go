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


// Package storage provides the storage abstraction layer for corpus.
//
// This package defines the repository interface that decouples storage
// implementation from the ingest pipeline. It allows different storage
// backends (BadgerDB, PostgreSQL) to be used interchangeably.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - ArticleRepository: idempotent upsert and lookup of article records,
//     keyed by content-addressed hash
//
// Backends live in subpackages:
//
//   - storage/badger: embedded BadgerDB backend (default)
//   - storage/postgres: PostgreSQL backend for shared deployments
//
// # Upsert Semantics
//
// UpsertArticles is the single write path. For a given hash, the first
// successful write fixes CreatedAt; every later write overwrites the
// mutable fields and advances UpdatedAt only. The operation is atomic per
// key: concurrent upserts for the same hash serialize at the store layer
// and converge to exactly one row.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
