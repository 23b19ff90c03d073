// internal/app/system/limits/limits.go
package limits

// Size limits for inbound payloads.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size of a JSON request body.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxWSFrame is the maximum size of one inbound websocket frame.
	MaxWSFrame = 64 << 10 // 64 KB
)
