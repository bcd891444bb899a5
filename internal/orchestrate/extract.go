package orchestrate

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nyra-ai/nyra/internal/transport"
)

// textPaths are probed in order for the human-readable part of a response.
var textPaths = []string{
	"result",
	"generated_text",
	"summary",
	"translated_text",
	"translation",
	"corrected_text",
	"rewritten_text",
	"content",
	"synthesized_result",
	"response",
	"data.result",
}

// ExtractText returns the first non-empty text field of env, or the indented JSON
// when the payload carries none.
func ExtractText(env transport.Envelope) string {
	if len(env) == 0 {
		return ""
	}
	for _, path := range textPaths {
		r := gjson.GetBytes(env, path)
		if r.Type == gjson.String && strings.TrimSpace(r.Str) != "" {
			return r.Str
		}
	}
	return env.Indent()
}
