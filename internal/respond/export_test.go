package respond

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// HTTPDoer exposes the HTTP client interface to tests.
type HTTPDoer = httpDoer

// ChatCompleter exposes the chat client interface to tests.
type ChatCompleter = chatCompleter

// WithGeminiHTTPClient exposes withGeminiHTTPClient for testing.
var WithGeminiHTTPClient = withGeminiHTTPClient

// NewTestOpenAIGenerator creates an OpenAIGenerator with a mock client.
func NewTestOpenAIGenerator(client ChatCompleter, opts ...OpenAIOption) *OpenAIGenerator {
	return newOpenAIGenerator(client, opts...)
}
