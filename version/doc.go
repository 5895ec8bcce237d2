// Package version reports the build identity of the crashstream binary.
//
// Version, commit and build time are stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/crashstream/version.Version=1.0.0" ./cmd/crashstream
//
// Unstamped builds fall back to the VCS settings recorded by the Go toolchain.
package version
