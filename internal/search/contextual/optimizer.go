package contextual

import (
	"context"

	"github.com/sagitta-go/core/internal/agent/profiles"
	"github.com/sagitta-go/core/internal/embedding"
)

// RetrievalOptimizer optimizes retrieval based on agent profiles
type RetrievalOptimizer struct {
	embeddingCache map[string]*embedding.Embedding
}

// NewRetrievalOptimizer creates a new retrieval optimizer
func NewRetrievalOptimizer() *RetrievalOptimizer {
	return &RetrievalOptimizer{
		embeddingCache: make(map[string]*embedding.Embedding),
	}
}

// OptimizeEmbedding optimizes an embedding for a specific profile
func (ro *RetrievalOptimizer) OptimizeEmbedding(ctx context.Context, emb *embedding.Embedding, profile *profiles.AgentProfile) (*embedding.Embedding, error) {
	if profile == nil {
		return emb, nil
	}

	// Apply profile-specific optimizations
	optimized := &embedding.Embedding{
		Text:   emb.Text,
		Vector: make(embedding.Vector, len(emb.Vector)),
		Model:  emb.Model,
	}

	// Copy original vector
	copy(optimized.Vector, emb.Vector)

	// Apply profile-based adjustments
	switch profile.ID {
	case "debugging":
		// Boost error-related dimensions (placeholder)
		ro.applyDebuggingOptimizations(optimized.Vector)
	case "security":
		// Boost security-related dimensions (placeholder)
		ro.applySecurityOptimizations(optimized.Vector)
	case "architecture":
		// Boost architecture-related dimensions (placeholder)
		ro.applyArchitectureOptimizations(optimized.Vector)
	case "documentation":
		// Boost documentation-related dimensions (placeholder)
		ro.applyDocumentationOptimizations(optimized.Vector)
	}

	return optimized, nil
}

// OptimizeSearch optimizes search parameters for a profile
func (ro *RetrievalOptimizer) OptimizeSearch(ctx context.Context, query string, profile *profiles.AgentProfile) (*OptimizedSearchParams, error) {
	params := &OptimizedSearchParams{
		Limit:          20,
		ScoreThreshold: 0.5,
		BoostFactors:   make(map[string]float32),
	}

	if profile == nil {
		return params, nil
	}

	// Adjust parameters based on profile
	switch profile.ID {
	case "debugging":
		params.Limit = 15
		params.ScoreThreshold = 0.7
		params.BoostFactors["error"] = 1.5
		params.BoostFactors["stack_trace"] = 1.3
	case "security":
		params.Limit = 25
		params.ScoreThreshold = 0.65
		params.BoostFactors["security"] = 1.4
		params.BoostFactors["vulnerability"] = 1.3
	case "architecture":
		params.Limit = 30
		params.ScoreThreshold = 0.5
		params.BoostFactors["design"] = 1.2
		params.BoostFactors["pattern"] = 1.2
	case "documentation":
		params.Limit = 25
		params.ScoreThreshold = 0.45
		params.BoostFactors["documentation"] = 1.3
		params.BoostFactors["example"] = 1.2
	case "code_analysis":
		params.Limit = 20
		params.ScoreThreshold = 0.6
		params.BoostFactors["function"] = 1.2
		params.BoostFactors["implementation"] = 1.1
	}

	return params, nil
}

// OptimizedSearchParams represents optimized search parameters
type OptimizedSearchParams struct {
	Limit          int                    `json:"limit"`
	ScoreThreshold float32                `json:"score_threshold"`
	BoostFactors   map[string]float32     `json:"boost_factors"`
	Filters        map[string]interface{} `json:"filters"`
}

// applyDebuggingOptimizations applies debugging-specific optimizations
func (ro *RetrievalOptimizer) applyDebuggingOptimizations(vector embedding.Vector) {
	// Placeholder: In a real implementation, this would boost dimensions
	// related to error patterns, stack traces, etc.
	for i := range vector {
		// Simulate boosting error-related dimensions
		if i%10 == 0 {
			vector[i] *= 1.1
		}
	}
}

// applySecurityOptimizations applies security-specific optimizations
func (ro *RetrievalOptimizer) applySecurityOptimizations(vector embedding.Vector) {
	// Placeholder: Boost security-related dimensions
	for i := range vector {
		if i%7 == 0 {
			vector[i] *= 1.15
		}
	}
}

// applyArchitectureOptimizations applies architecture-specific optimizations
func (ro *RetrievalOptimizer) applyArchitectureOptimizations(vector embedding.Vector) {
	// Placeholder: Boost architecture-related dimensions
	for i := range vector {
		if i%5 == 0 {
			vector[i] *= 1.1
		}
	}
}

// applyDocumentationOptimizations applies documentation-specific optimizations
func (ro *RetrievalOptimizer) applyDocumentationOptimizations(vector embedding.Vector) {
	// Placeholder: Boost documentation-related dimensions
	for i := range vector {
		if i%3 == 0 {
			vector[i] *= 1.05
		}
	}
}
