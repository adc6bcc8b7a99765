package api

import (
	"os"
	"strings"
)

const (
	EnvGardienAddress       = "GARDIEN_ADDR"
	EnvGardienCACert        = "GARDIEN_CACERT"
	EnvGardienClientTimeout = "GARDIEN_CLIENT_TIMEOUT"
	EnvGardienSkipVerify    = "GARDIEN_SKIP_VERIFY"
	EnvGardienTLSServerName = "GARDIEN_TLS_SERVER_NAME"
	EnvGardienMaxRetries    = "GARDIEN_MAX_RETRIES"
	EnvGardienRateLimit     = "GARDIEN_RATE_LIMIT"
	EnvGardienSessionFile   = "GARDIEN_SESSION_FILE"

	gardienEnvPrefix = "GARDIEN_"
)

// ReadGardienVariable reads a GARDIEN_-prefixed environment variable.
// Non-prefixed names read as empty so call sites cannot accidentally
// consult unrelated environment state.
func ReadGardienVariable(name string) string {
	if strings.HasPrefix(name, gardienEnvPrefix) {
		return os.Getenv(name)
	}
	return ""
}
