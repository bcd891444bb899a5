package server

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/nyra-ai/nyra/internal/api"
	"github.com/nyra-ai/nyra/internal/llm"
)

const nanoModel = "gemini-nano"

// assist runs a writing-assistant completion and writes the standard
// {type, config, metadata, result} response.
func (s *Server) assist(w http.ResponseWriter, r *http.Request, kind, failure string, messages []llm.ChatMessage, opts llm.ChatOptions, config, metadata map[string]any) {
	reply, provider, err := s.generate(r.Context(), messages, opts)
	if err != nil {
		s.logger.Error().Err(err).Str("type", kind).Msg("generation failed")
		writeError(w, http.StatusInternalServerError, failure, err.Error())
		return
	}

	config["use_nano"] = true
	metadata["model"] = nanoModel
	metadata["processing"] = "on-device"
	metadata["provider"] = provider

	writeJSON(w, http.StatusOK, map[string]any{
		"type":     kind,
		"config":   config,
		"metadata": metadata,
		"result":   reply,
	})
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok || !requireFields(w, body, "Prompt is required", "prompt") {
		return
	}

	prompt := body.Get("prompt").String()
	temperature := floatField(body, "temperature", api.DefaultPromptTemperature)
	maxTokens := intField(body, "max_tokens", api.DefaultPromptMaxTokens)

	s.assist(w, r, "chrome_ai_prompt", "Prompt generation failed",
		[]llm.ChatMessage{llm.User(prompt)},
		llm.ChatOptions{Temperature: temperature, MaxTokens: maxTokens},
		map[string]any{"prompt": prompt, "temperature": temperature, "max_tokens": maxTokens},
		map[string]any{"privacy": "local"},
	)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok || !requireFields(w, body, "Text is required", "text") {
		return
	}

	text := body.Get("text").String()
	summaryType := stringField(body, "type", api.DefaultSummaryType)
	length := stringField(body, "length", api.DefaultSummaryLength)

	instruction := fmt.Sprintf("Summarize the user's text. Format: %s. Length: %s. Reply with the summary only.", summaryType, length)
	s.assist(w, r, "chrome_ai_summarizer", "Summarization failed",
		[]llm.ChatMessage{llm.System(instruction), llm.User(text)},
		llm.ChatOptions{},
		map[string]any{"text": text, "summary_type": summaryType, "length": length},
		map[string]any{"original_length": utf8.RuneCountInString(text)},
	)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok || !requireFields(w, body, "Text and target_language are required", "text", "target_language") {
		return
	}

	text := body.Get("text").String()
	target := body.Get("target_language").String()
	source := stringField(body, "source_language", api.DefaultSourceLanguage)

	from := "the detected source language"
	if source != api.DefaultSourceLanguage {
		from = source
	}
	instruction := fmt.Sprintf("Translate the user's text from %s to %s. Reply with the translation only.", from, target)
	s.assist(w, r, "chrome_ai_translator", "Translation failed",
		[]llm.ChatMessage{llm.System(instruction), llm.User(text)},
		llm.ChatOptions{},
		map[string]any{"text": text, "source_language": source, "target_language": target},
		map[string]any{"offline_capable": true},
	)
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok || !requireFields(w, body, "Context is required", "context") {
		return
	}

	brief := body.Get("context").String()
	tone := stringField(body, "tone", api.DefaultWriterTone)
	length := stringField(body, "length", "medium")
	contentType := stringField(body, "content_type", api.DefaultContentType)

	instruction := fmt.Sprintf("Write %s content in a %s tone, %s length, from the user's brief. Reply with the content only.", contentType, tone, length)
	s.assist(w, r, "chrome_ai_writer", "Content generation failed",
		[]llm.ChatMessage{llm.System(instruction), llm.User(brief)},
		llm.ChatOptions{},
		map[string]any{"context": brief, "tone": tone, "length": length, "content_type": contentType},
		map[string]any{"privacy_mode": "local"},
	)
}

func (s *Server) handleProofread(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok || !requireFields(w, body, "Text is required", "text") {
		return
	}

	text := body.Get("text").String()
	grammar := boolField(body, "check_grammar", true)
	spelling := boolField(body, "check_spelling", true)
	style := boolField(body, "check_style", true)

	var checks []string
	if grammar {
		checks = append(checks, "grammar")
	}
	if spelling {
		checks = append(checks, "spelling")
	}
	if style {
		checks = append(checks, "style")
	}
	instruction := "Return the user's text unchanged."
	if len(checks) > 0 {
		instruction = fmt.Sprintf("Proofread the user's text for %s. Reply with the corrected text only.", strings.Join(checks, ", "))
	}

	s.assist(w, r, "chrome_ai_proofreader", "Proofreading failed",
		[]llm.ChatMessage{llm.System(instruction), llm.User(text)},
		llm.ChatOptions{},
		map[string]any{"text": text, "check_grammar": grammar, "check_spelling": spelling, "check_style": style},
		map[string]any{"checks_enabled": map[string]bool{"grammar": grammar, "spelling": spelling, "style": style}},
	)
}

func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok || !requireFields(w, body, "Text is required", "text") {
		return
	}

	text := body.Get("text").String()
	goal := stringField(body, "goal", api.DefaultRewriteGoal)
	tone := stringField(body, "tone", api.DefaultRewriteTone)

	instruction := fmt.Sprintf("Rewrite the user's text. Goal: %s. Tone: %s. Reply with the rewritten text only.", goal, tone)
	s.assist(w, r, "chrome_ai_rewriter", "Rewriting failed",
		[]llm.ChatMessage{llm.System(instruction), llm.User(text)},
		llm.ChatOptions{},
		map[string]any{"text": text, "rewrite_goal": goal, "target_tone": tone},
		map[string]any{"original_length": utf8.RuneCountInString(text)},
	)
}
