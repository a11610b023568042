// Package generation provides the interface and error taxonomy for the
// external generation service. It abstracts the details of the LLM API
// integration (Gemini) behind a single Complete call, classifies upstream
// failures as transient or fatal for the worker's retry controller, and
// validates returned payloads against the catalog-declared output contract.
package generation
