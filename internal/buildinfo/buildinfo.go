// Package buildinfo holds the version and commit of the multilookup binary.
// Both are overwritten at link time:
//
//	go build -ldflags "-X github.com/lc/multilookup/internal/buildinfo.Version=v0.2.0 \
//	  -X github.com/lc/multilookup/internal/buildinfo.Commit=$(git rev-parse --short HEAD)" ./cmd/multilookup
package buildinfo

// Version is set at link-time with -ldflags.
var Version = "v0.1.0"

// Commit is set at link-time with -ldflags.
// Default is "unknown" so tests and "go run ." still work.
var Commit = "unknown"
