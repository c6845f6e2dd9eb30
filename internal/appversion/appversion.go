// Package appversion provides build-time version information for the ocs
// binaries.
//
// The version is injected with -ldflags:
//
//	go build -ldflags "-X ocs/internal/appversion.version=v0.3.0" ./cmd/...
//
// Without it, the module version or VCS revision recorded by the Go
// toolchain is used.
package appversion

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// version is set at build time via -ldflags.
var version = "dev" //nolint:gochecknoglobals // ldflags requires package-level var

// String returns the current version.
func String() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	return fromBuildInfo(info)
}

// fromBuildInfo picks a version from toolchain build metadata.
func fromBuildInfo(info *debug.BuildInfo) string {
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return "dev"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if dirty {
		revision += "-dirty"
	}
	return "dev+" + revision
}

// Full returns the version with the Go toolchain and platform.
func Full() string {
	return fmt.Sprintf("%s (%s %s/%s)", String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
