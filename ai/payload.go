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

package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	factsKey = "facts"
	tagsKey  = "tags"
)

// ParseFacts decodes a {"facts": [string, ...]} model response.
func ParseFacts(raw string) ([]string, error) {
	return decodeList(raw, factsKey)
}

// ParseTags decodes a {"tags": [string, ...]} model response.
func ParseTags(raw string) ([]string, error) {
	return decodeList(raw, tagsKey)
}

// decodeList extracts the string list stored under key in a JSON object.
// The key must be present and hold an array whose items are all strings.
// Other keys are ignored.
func decodeList(raw, key string) ([]string, error) {
	text := repairJSON(stripCodeFence(raw))

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	value, ok := payload[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedPayload, key)
	}
	if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return nil, fmt.Errorf("%w: %q is null", ErrMalformedPayload, key)
	}

	var items []*string
	if err := json.Unmarshal(value, &items); err != nil {
		return nil, fmt.Errorf("%w: %q is not a list of strings: %w", ErrMalformedPayload, key, err)
	}

	list := make([]string, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("%w: %q item %d is null", ErrMalformedPayload, key, i)
		}
		list[i] = *item
	}
	return list, nil
}

// stripCodeFence removes a surrounding markdown code fence if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// repairJSON fixes a missing opening quote before object keys, a glitch
// some models produce. Example: `{facts": [...]}` becomes `{"facts": [...]}`.
// Text inside string values is copied unchanged.
func repairJSON(s string) string {
	src := []rune(s)
	fixed := make([]rune, 0, len(src)+8)

	inString := false
	i := 0
	for i < len(src) {
		ch := src[i]

		if inString {
			fixed = append(fixed, ch)
			i++
			if ch == '\\' && i < len(src) {
				fixed = append(fixed, src[i])
				i++
			} else if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			fixed = append(fixed, ch)
			i++
			continue
		}

		fixed = append(fixed, ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		for i < len(src) && (src[i] == ' ' || src[i] == '\n' || src[i] == '\t' || src[i] == '\r') {
			fixed = append(fixed, src[i])
			i++
		}

		keyStart := i
		for i < len(src) && (isLetter(src[i]) || src[i] == '_') {
			i++
		}
		if i > keyStart && i+1 < len(src) && src[i] == '"' && src[i+1] == ':' {
			fixed = append(fixed, '"')
			fixed = append(fixed, src[keyStart:i]...)
			fixed = append(fixed, '"', ':')
			i += 2
			continue
		}
		fixed = append(fixed, src[keyStart:i]...)
	}

	return string(fixed)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
