package main

// Exit codes used by all commands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing config, invalid settings)
	ExitDataError   = 3 // Data error (document not found, malformed input)
	ExitEmbedError  = 4 // Embedding provider unavailable or model mismatch
)
