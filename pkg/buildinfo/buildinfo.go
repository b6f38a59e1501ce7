// Package buildinfo exposes version metadata stamped at build time.
package buildinfo

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// ServiceName identifies this binary in version output.
const ServiceName = "parley"

// These vars are set at build time via ldflags:
// -X github.com/parleyhq/parley/pkg/buildinfo.Version=v0.3.0
// -X github.com/parleyhq/parley/pkg/buildinfo.Commit=b806fe7
// -X github.com/parleyhq/parley/pkg/buildinfo.BuildTime=2026-08-30T10:30:00Z
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info holds build information.
type Info struct {
	ServiceName string `json:"service_name"`
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	BuildTime   string `json:"build_time"`
	GoVersion   string `json:"go_version"`
}

// Get returns the current build info.
func Get() Info {
	return Info{
		ServiceName: ServiceName,
		Version:     Version,
		Commit:      Commit,
		BuildTime:   BuildTime,
		GoVersion:   runtime.Version(),
	}
}

// String returns a human-readable one-liner like "v0.3.0 (b806fe7, 2026-08-30T10:30:00Z)".
func String() string {
	return Version + " (" + Commit + ", " + BuildTime + ")"
}

// Handler returns an HTTP handler that responds with build info JSON.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Get())
	}
}
