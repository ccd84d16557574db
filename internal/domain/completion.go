package domain

// CompletionOptions are the decoding parameters of a single generation request.
// Backends ignore fields they cannot express.
type CompletionOptions struct {
	Temperature float32
	TopP        float32
	TopK        int
	MaxTokens   int
}
