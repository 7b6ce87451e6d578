// Package version exposes rpmstamp's own build metadata.
//
// Version, Commit and BuildTime are injected with ldflags. Local builds fall back to
// the VCS revision recorded by the Go toolchain.
package version
