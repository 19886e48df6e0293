package upstream

import (
	"encoding/json"
	"strings"
)

// responsesResult is the subset of a Responses API reply that carries text.
type responsesResult struct {
	OutputText json.RawMessage `json:"output_text"`
	Output     []outputEntry   `json:"output"`
	Usage      *struct {
		TotalTokens *int `json:"total_tokens"`
	} `json:"usage"`
}

type outputEntry struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
	Text    *string         `json:"text"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// extractor pulls generated text from one response shape. It returns "" when
// the shape is absent or empty.
type extractor func(*responsesResult) string

// extractors are tried in order; the first non-empty result wins. New
// provider shapes go here without touching the retry loop.
var extractors = []extractor{
	fromOutputText,
	fromOutputMessage,
}

func extractText(r *responsesResult) string {
	for _, ex := range extractors {
		if s := ex(r); s != "" {
			return s
		}
	}
	return ""
}

// fromOutputText reads the flat output_text field, either a list of strings
// joined by newlines or a single string.
func fromOutputText(r *responsesResult) string {
	if len(r.OutputText) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(r.OutputText, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, "\n"))
	}
	var single string
	if err := json.Unmarshal(r.OutputText, &single); err == nil {
		return strings.TrimSpace(single)
	}
	return ""
}

// fromOutputMessage reads the first "message" entry of output (or the first
// entry when none is typed "message"). Its output_text/text content parts are
// concatenated; an entry without a content list contributes its own text.
func fromOutputMessage(r *responsesResult) string {
	if len(r.Output) == 0 {
		return ""
	}
	entry := r.Output[0]
	for _, e := range r.Output {
		if e.Type == "message" {
			entry = e
			break
		}
	}

	var parts []contentPart
	if len(entry.Content) > 0 && json.Unmarshal(entry.Content, &parts) == nil {
		var b strings.Builder
		for _, p := range parts {
			if p.Type == "output_text" || p.Type == "text" {
				b.WriteString(p.Text)
			}
		}
		return strings.TrimSpace(b.String())
	}
	if entry.Text != nil {
		return strings.TrimSpace(*entry.Text)
	}
	return ""
}
