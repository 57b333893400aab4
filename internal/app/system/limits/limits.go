// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBodySize is the maximum size for ordinary JSON request
	// bodies (session creation, provisioning, votes).
	MaxJSONBodySize = 64 << 10 // 64 KB

	// MaxMessageBodySize is the maximum size for message and reply
	// creation, which carry HTML bodies.
	MaxMessageBodySize = 1 << 20 // 1 MB
)
