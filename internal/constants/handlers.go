// Package constants provides shared constants used across the codebase.
package constants

import "time"

// HTTP constants
const (
	// MaxUploadSize caps request bodies carrying base64 images (32 MB)
	MaxUploadSize = 32 << 20

	// RequestTimeout bounds a single API request, training included
	RequestTimeout = 5 * time.Minute

	// ShutdownTimeout is the grace period for in-flight requests on shutdown
	ShutdownTimeout = 30 * time.Second
)
