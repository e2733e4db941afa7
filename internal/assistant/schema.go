package assistant

import "github.com/abhisek/ladder/internal/llm"

// ReplySchema is the structured output every assistant request asks for.
var ReplySchema = &llm.Schema{
	Name:        "assistant-reply",
	Description: "An answer to a learner's question about a lesson",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"answer": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Direct answer in plain language, at most 6 sentences",
			},
			"follow_up": map[string]any{
				"type":        "string",
				"description": "One short question the learner could ask next, or empty",
			},
		},
		"required":             []any{"answer", "follow_up"},
		"additionalProperties": false,
	},
}
