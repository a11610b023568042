// Package gemini implements the generation.Generator interface on top of
// Google's Gemini API (google.golang.org/genai), including the mapping of
// upstream failures onto the retryable/fatal error taxonomy.
package gemini
