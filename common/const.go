package common

import "time"

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 3333

	DefaultConnectTimeout = 10 * time.Second
	DefaultReceiveTimeout = 2 * time.Second

	// DefaultBufferSize is the size of a single socket read.
	DefaultBufferSize = 4096

	DefaultCommandFile = "examples/default.tpoma"
)

// Wire delimiters. Commands travel NUL-terminated towards the server,
// responses come back newline-terminated.
const (
	CommandTerminator  = '\x00'
	ResponseTerminator = '\n'
)
