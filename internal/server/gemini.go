package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nyra-ai/nyra/internal/api"
	"github.com/nyra-ai/nyra/internal/llm"
)

const (
	maxRecommendations = 15
	agentExcerptRunes  = 300
	agentConfidence    = 0.92
)

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok || !requireFields(w, body, "Prompt is required", "prompt") {
		return
	}

	prompt := body.Get("prompt").String()
	temperature := floatField(body, "temperature", api.DefaultGenerateTemperature)
	maxTokens := intField(body, "max_tokens", api.DefaultGenerateMaxTokens)

	text, provider, err := s.generate(r.Context(), []llm.ChatMessage{llm.User(prompt)},
		llm.ChatOptions{Temperature: temperature, MaxTokens: maxTokens})
	if err != nil {
		s.logger.Error().Err(err).Msg("generate failed")
		writeError(w, http.StatusInternalServerError, "Generation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"generated_text": text,
		"model":          provider,
		"processing":     "cloud",
		"metadata": map[string]any{
			"prompt_tokens":     len(strings.Fields(prompt)),
			"completion_tokens": len(strings.Fields(text)),
			"temperature":       temperature,
			"timestamp":         s.timestamp(),
		},
	})
}

func (s *Server) handleAnalyzeDevOps(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok || !requireFields(w, body, "Code and type are required", "code", "type") {
		return
	}

	code := body.Get("code").String()
	configType := body.Get("type").String()

	prompt := fmt.Sprintf(`Analyze this %s configuration and provide detailed feedback:

%s

Provide:
1. Security Issues (with severity levels)
2. Best Practice Violations
3. Performance Optimization Opportunities
4. Cost Reduction Suggestions
5. Scalability Improvements
6. Specific Recommendations with line numbers

Format your response clearly with sections.`, configType, code)

	analysis, provider, err := s.generate(r.Context(), []llm.ChatMessage{llm.User(prompt)}, llm.ChatOptions{})
	if err != nil {
		s.logger.Error().Err(err).Str("config_type", configType).Msg("devops analysis failed")
		writeError(w, http.StatusInternalServerError, "Analysis failed", err.Error())
		return
	}

	recs := ExtractRecommendations(analysis)
	security := 0
	for _, rec := range recs {
		if rec.Category == "security" {
			security++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"config_type":     configType,
		"analysis":        analysis,
		"recommendations": recs,
		"severity_levels": SeverityLevels(analysis),
		"estimated_improvements": map[string]any{
			"security_score":   85 + security*2,
			"performance_gain": "15-25%",
			"cost_reduction":   "10-20%",
		},
		"metadata": map[string]any{
			"model":          provider,
			"lines_analyzed": len(strings.Split(code, "\n")),
			"timestamp":      s.timestamp(),
		},
	})
}

// AgentResponse is one agent's contribution to a multi-agent task.
type AgentResponse struct {
	Agent      string  `json:"agent"`
	Response   string  `json:"response"`
	Confidence float64 `json:"confidence"`
	Timestamp  string  `json:"timestamp"`
}

func (s *Server) handleMultiAgent(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok || !requireFields(w, body, "Task description is required", "task") {
		return
	}

	task := body.Get("task").String()
	agents := append([]string(nil), api.DefaultAgents...)
	if v := body.Get("agents"); v.IsArray() {
		agents = agents[:0]
		for _, a := range v.Array() {
			if name := strings.TrimSpace(a.String()); name != "" {
				agents = append(agents, name)
			}
		}
	}

	var responses []AgentResponse
	for _, agent := range agents {
		prompt := fmt.Sprintf(`You are a specialized %s agent.

Task: %s

Provide your perspective and analysis as a %s. Be specific and actionable.`, agent, task, agent)

		reply, _, err := s.generate(r.Context(), []llm.ChatMessage{llm.User(prompt)}, llm.ChatOptions{})
		if err != nil {
			s.logger.Error().Err(err).Str("agent", agent).Msg("multi-agent step failed")
			writeError(w, http.StatusInternalServerError, "Multi-agent processing failed", err.Error())
			return
		}
		responses = append(responses, AgentResponse{
			Agent:      agent,
			Response:   reply,
			Confidence: agentConfidence,
			Timestamp:  s.timestamp(),
		})
	}

	synthesis, provider, err := s.generate(r.Context(), []llm.ChatMessage{llm.User(synthesisPrompt(responses))}, llm.ChatOptions{})
	if err != nil {
		s.logger.Error().Err(err).Msg("multi-agent synthesis failed")
		writeError(w, http.StatusInternalServerError, "Multi-agent processing failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"task":               task,
		"agent_responses":    responses,
		"synthesized_result": synthesis,
		"metadata": map[string]any{
			"agents_used":   len(agents),
			"model":         provider,
			"orchestration": "sequential",
			"timestamp":     s.timestamp(),
		},
	})
}

func synthesisPrompt(responses []AgentResponse) string {
	var sb strings.Builder
	sb.WriteString("Synthesize the following agent responses into a coherent, comprehensive result:\n\n")
	for i, r := range responses {
		if i > 0 {
			sb.WriteString("\n")
		}
		excerpt := []rune(r.Response)
		if len(excerpt) > agentExcerptRunes {
			excerpt = excerpt[:agentExcerptRunes]
		}
		fmt.Fprintf(&sb, "%s: %s...", strings.ToUpper(r.Agent), string(excerpt))
	}
	sb.WriteString("\n\nProvide a unified, actionable response that combines the best insights from all agents.")
	return sb.String()
}

// Recommendation is an actionable line extracted from an analysis.
type Recommendation struct {
	Recommendation string `json:"recommendation"`
	Priority       string `json:"priority"`
	Category       string `json:"category"`
	LineNumber     int    `json:"line_number"`
}

var recommendationKeywords = []string{"recommend", "should", "consider", "suggest", "improve", "fix"}

// ExtractRecommendations picks the lines of an analysis that read as advice.
func ExtractRecommendations(analysis string) []Recommendation {
	recs := []Recommendation{}
	for i, line := range strings.Split(analysis, "\n") {
		lower := strings.ToLower(line)
		if !containsAny(lower, recommendationKeywords...) {
			continue
		}
		recs = append(recs, Recommendation{
			Recommendation: strings.TrimSpace(line),
			Priority:       priorityOf(lower),
			Category:       categoryOf(lower),
			LineNumber:     i + 1,
		})
		if len(recs) == maxRecommendations {
			break
		}
	}
	return recs
}

func priorityOf(text string) string {
	switch {
	case containsAny(text, "critical", "urgent", "severe", "security"):
		return "critical"
	case containsAny(text, "important", "should", "must"):
		return "high"
	case containsAny(text, "consider", "recommend"):
		return "medium"
	default:
		return "low"
	}
}

func categoryOf(text string) string {
	switch {
	case containsAny(text, "security", "vulnerability", "encrypt", "auth"):
		return "security"
	case containsAny(text, "performance", "optimize", "speed", "cache"):
		return "performance"
	case containsAny(text, "cost", "billing", "expensive", "price"):
		return "cost"
	case containsAny(text, "scale", "capacity", "load", "availability"):
		return "scalability"
	case containsAny(text, "maintainability", "documentation", "code quality"):
		return "maintainability"
	default:
		return "general"
	}
}

// SeverityLevels counts severity wording in an analysis.
func SeverityLevels(analysis string) map[string]int {
	lower := strings.ToLower(analysis)
	return map[string]int{
		"critical": strings.Count(lower, "critical") + strings.Count(lower, "severe"),
		"high":     strings.Count(lower, "high priority") + strings.Count(lower, "important"),
		"medium":   strings.Count(lower, "medium") + strings.Count(lower, "moderate"),
		"low":      strings.Count(lower, "low priority") + strings.Count(lower, "minor"),
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
