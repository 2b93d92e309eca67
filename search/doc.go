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

// Package search provides semantic retrieval over stored facts.
//
// The Searcher embeds a query with the same model used for the stored chunks
// and asks the chunk repository for the nearest vectors by cosine distance.
// Results carry the owning document name and the cosine similarity.
//
// An optional keyword boost re-ranks candidates whose text contains every
// non stop-word of the query.
package search
