package model

// Prompt is one request to the text generation service.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}
