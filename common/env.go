// Package common provides shared constants used across the pomadbg
// command line and its transport client.
package common

// Environment variable names for configuration.
const (
	// IPEnv is the environment variable for the PoMA server address.
	IPEnv = "POMADBG_IP"

	// PortEnv is the environment variable for the PoMA server port.
	PortEnv = "POMADBG_PORT"

	// FileEnv is the environment variable for the command definition file.
	FileEnv = "POMADBG_FILE"

	// AssumeYesEnv makes send failures continue without prompting.
	AssumeYesEnv = "POMADBG_ASSUME_YES"

	// ProxyEnv is the environment variable for a SOCKS5 proxy URL.
	ProxyEnv = "POMADBG_PROXY"

	// RecordEnv is the environment variable for the transcript database path.
	RecordEnv = "POMADBG_RECORD"

	// LogFileEnv is the environment variable for the JSON log file path.
	LogFileEnv = "POMADBG_LOG_FILE"

	// NoColorEnv disables ANSI colors, following https://no-color.org.
	NoColorEnv = "NO_COLOR"
)
