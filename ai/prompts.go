package ai

import (
	"encoding/json"
	"strings"

	"github.com/poiesic/docvault/core"
)

// FactExtractionPrompt is the system prompt sent with every document window.
const FactExtractionPrompt = `You split document text into atomic facts for a semantic search index.

Output ONLY valid JSON. Do not include any preamble, explanation, greeting, or acknowledgment.
Start your response directly with the opening brace { and end with the closing brace }.
Your output must have exactly this shape:

{"facts": ["<fact>", "<fact>"]}

Rules:
- Each fact is one self-contained statement that can be understood without the surrounding text.
- Replace pronouns with the names they refer to.
- Keep numbers, dates, names and units exactly as written.
- Preserve the order in which facts appear in the text.
- Do not invent facts that the text does not state.
- The text may start or end mid-sentence; skip fragments that carry no complete fact.
- If the text contains no facts, return {"facts": []}.

Example:
Input: "Acme Corp was founded in 1999 in Berlin. It employs 250 people."
Output:
{"facts": ["Acme Corp was founded in 1999.", "Acme Corp was founded in Berlin.", "Acme Corp employs 250 people."]}`

const tagMatchingPromptTemplate = `You classify documents against a fixed list of tags.

Known tags: {{tags}}

Output ONLY valid JSON. Do not include any preamble, explanation, greeting, or acknowledgment.
Start your response directly with the opening brace { and end with the closing brace }.
Your output must have exactly this shape:

{"tags": ["<tag>", "<tag>"]}

Rules:
- Choose only tags from the known tags list and spell them exactly as listed.
- Choose every tag that clearly describes the document's subject matter.
- Do not invent new tags.
- If no tag applies, return {"tags": []}.`

// BuildTagMatchingPrompt embeds the lower-cased catalog names into the tag matching prompt.
func BuildTagMatchingPrompt(catalog []*core.Tag) string {
	names := make([]string, len(catalog))
	for i, tag := range catalog {
		names[i] = core.FoldTagName(tag.Name)
	}
	// Marshalling a []string cannot fail.
	encoded, _ := json.Marshal(names)
	return strings.Replace(tagMatchingPromptTemplate, "{{tags}}", string(encoded), 1)
}
