package artifact

// Export internal types for testing.
// This file is only compiled during tests (suffix _test.go).

type (
	TempFile   = tempFile
	FileSystem = fileSystem
)
