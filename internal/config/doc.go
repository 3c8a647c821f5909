// Package config loads and validates the process-wide graphgate
// configuration.
//
// Configuration is layered: built-in defaults, then an optional config.yaml,
// then environment variables. Client credentials and the artifact shared
// secret are environment-only so they cannot end up in a checked-in file.
//
// The configuration is read once at startup and is immutable afterwards.
// Every replica loading the same inputs behaves identically; there is no
// runtime reload because nothing here may change while artifacts issued
// under it are in flight. Validation failures are fatal: a replica with a
// partial provider configuration must refuse to start rather than hand out
// misclassified errors at call time.
package config
