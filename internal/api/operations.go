package api

import (
	"fmt"
	"sort"

	"github.com/nyra-ai/nyra/internal/transport"
)

// Operation names accepted by Client.Call.
const (
	OpPrompt        = "prompt"
	OpSummarize     = "summarize"
	OpTranslate     = "translate"
	OpWrite         = "write"
	OpProofread     = "proofread"
	OpRewrite       = "rewrite"
	OpGenerate      = "generate"
	OpAnalyzeDevOps = "analyze-devops"
	OpMultiAgent    = "multi-agent"
	OpOptimizeSQL   = "optimize-sql"
	OpAnalytics     = "analytics"
	OpSaveData      = "save"
	OpGetData       = "get"
	OpHealth        = "health"
)

// Endpoint binds an operation to its backend route.
type Endpoint struct {
	Path   string
	Method transport.Method
}

// Operations is the fixed registry of backend capabilities.
var Operations = map[string]Endpoint{
	OpPrompt:        {"/api/chrome-ai/prompt", transport.MethodPost},
	OpSummarize:     {"/api/chrome-ai/summarize", transport.MethodPost},
	OpTranslate:     {"/api/chrome-ai/translate", transport.MethodPost},
	OpWrite:         {"/api/chrome-ai/write", transport.MethodPost},
	OpProofread:     {"/api/chrome-ai/proofread", transport.MethodPost},
	OpRewrite:       {"/api/chrome-ai/rewrite", transport.MethodPost},
	OpGenerate:      {"/api/gemini/generate", transport.MethodPost},
	OpAnalyzeDevOps: {"/api/gemini/analyze-devops", transport.MethodPost},
	OpMultiAgent:    {"/api/gemini/multi-agent", transport.MethodPost},
	OpOptimizeSQL:   {"/api/bigquery/optimize", transport.MethodPost},
	OpAnalytics:     {"/api/bigquery/analytics", transport.MethodGet},
	OpSaveData:      {"/api/firebase/data/save", transport.MethodPost},
	OpGetData:       {"/api/firebase/data/get", transport.MethodPost},
	OpHealth:        {"/health", transport.MethodGet},
}

// OperationNames returns the registry keys in sorted order.
func OperationNames() []string {
	names := make([]string, 0, len(Operations))
	for name := range Operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(op string) (Endpoint, error) {
	ep, ok := Operations[op]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	return ep, nil
}
