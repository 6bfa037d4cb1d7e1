package transcribe

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// OpenAIClient exposes the client interface to tests.
type OpenAIClient = openaiClient

// NewTestTranscriber creates an OpenAITranscriber with a mock client.
func NewTestTranscriber(client OpenAIClient, opts ...TranscriberOption) *OpenAITranscriber {
	return newOpenAITranscriber(client, opts...)
}

var HasWords = hasWords
