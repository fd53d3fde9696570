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

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// ArticleRecordMUS is the MUS serializer for ArticleRecord values.
// Field order is part of the storage format; append new fields at the end.
var ArticleRecordMUS = articleRecordMUS{}

type articleRecordMUS struct{}

func (articleRecordMUS) Marshal(v ArticleRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.Hash, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.CanonicalURL, bs[n:])
	n += ord.String.Marshal(v.Source, bs[n:])
	n += ord.String.Marshal(v.Lang, bs[n:])
	n += varint.Int.Marshal(v.ReadingMinutes, bs[n:])
	n += varint.Int.Marshal(len(v.Quality.Checks), bs[n:])
	for _, check := range v.Quality.Checks {
		n += ord.String.Marshal(check, bs[n:])
	}
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (articleRecordMUS) Unmarshal(bs []byte) (v ArticleRecord, n int, err error) {
	var n1 int
	if v.Hash, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Description, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CanonicalURL, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Source, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Lang, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ReadingMinutes, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1

	var checks int
	if checks, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if checks > 0 {
		v.Quality.Checks = make([]string, 0, checks)
		for i := 0; i < checks; i++ {
			var check string
			if check, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
				return v, n + n1, err
			}
			n += n1
			v.Quality.Checks = append(v.Quality.Checks, check)
		}
	}

	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.CreatedAt = time.UnixMicro(micros).UTC()
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.UpdatedAt = time.UnixMicro(micros).UTC()
	return v, n, nil
}

func (articleRecordMUS) Size(v ArticleRecord) (size int) {
	size = ord.String.Size(v.Hash)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Description)
	size += ord.String.Size(v.Text)
	size += ord.String.Size(v.CanonicalURL)
	size += ord.String.Size(v.Source)
	size += ord.String.Size(v.Lang)
	size += varint.Int.Size(v.ReadingMinutes)
	size += varint.Int.Size(len(v.Quality.Checks))
	for _, check := range v.Quality.Checks {
		size += ord.String.Size(check)
	}
	size += varint.Int64.Size(v.CreatedAt.UnixMicro())
	size += varint.Int64.Size(v.UpdatedAt.UnixMicro())
	return size
}
