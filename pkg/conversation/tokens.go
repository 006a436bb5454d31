package conversation

import (
	"log/slog"

	tiktoken "github.com/weaviate/tiktoken-go"
)

const tokenEncoding = "cl100k_base"

// Estimator reports an estimated token count for a piece of text.
type Estimator func(text string) int

// HeuristicEstimator approximates tokens as ceil(len/4). It is deterministic
// and monotonic in text length, so accounting stays stable when the subword
// tokenizer is unavailable.
func HeuristicEstimator(text string) int {
	return (len(text) + 3) / 4
}

// NewEstimator returns a cl100k_base subword estimator, falling back to
// HeuristicEstimator when the encoding cannot be loaded.
func NewEstimator() Estimator {
	encoding, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		slog.Default().Warn("Failed to load tokenizer encoding, using character-based estimation", "encoding", tokenEncoding, "error", err)
		return HeuristicEstimator
	}

	return func(text string) int {
		return len(encoding.Encode(text, nil, nil))
	}
}
