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

package ingestion

const (
	// DefaultWindowSize is the number of characters in each window sent for fact extraction.
	DefaultWindowSize = 4000

	// DefaultTagPrefixLength is the number of leading characters used for tag matching.
	DefaultTagPrefixLength = 5000
)

// SplitWindows cuts text into contiguous, non-overlapping windows of at most
// size characters. Concatenating the windows yields text again. Empty text
// yields no windows. A size below 1 is treated as DefaultWindowSize.
func SplitWindows(text string, size int) []string {
	if size < 1 {
		size = DefaultWindowSize
	}

	var windows []string
	start, count := 0, 0
	for i := range text {
		if count == size {
			windows = append(windows, text[start:i])
			start, count = i, 0
		}
		count++
	}
	if start < len(text) {
		windows = append(windows, text[start:])
	}
	return windows
}

// Prefix returns the first n characters of text, or all of it when shorter.
func Prefix(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
