package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"legaldoc/internal/model"
)

// field aliases accepted from model output, canonical name first.
var (
	keyTermsKeys    = []string{"keyTerms", "key_terms", "KeyTerms"}
	risksKeys       = []string{"risks", "Risks"}
	obligationsKeys = []string{"obligations", "Obligations"}
)

// ParseChunkAnalysis decodes a model response into a ChunkAnalysis. The
// response may be wrapped in a Markdown code fence. Fields that are missing
// or not arrays are left nil, and non-string array items are dropped. An
// error is returned only when the text is not a JSON object at all.
func ParseChunkAnalysis(raw string) (model.ChunkAnalysis, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFence(raw)), &obj); err != nil {
		return model.ChunkAnalysis{}, fmt.Errorf("parse chunk analysis: %w", err)
	}
	return model.ChunkAnalysis{
		KeyTerms:    stringsField(obj, keyTermsKeys),
		Risks:       stringsField(obj, risksKeys),
		Obligations: stringsField(obj, obligationsKeys),
	}, nil
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the info string, e.g. ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func stringsField(obj map[string]json.RawMessage, keys []string) []string {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		var items []any
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
