// Package version reports build information for the mfa binary.
//
// Values are stamped at link time, falling back to the module's embedded
// VCS settings:
//
//	go build -ldflags "-X github.com/kbukum/memeforanyone/version.Version=0.1.0" ./cmd/mfa
package version
