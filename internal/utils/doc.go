// Package utils hosts shared application plumbing: the zap logger factory,
// the Viper-backed configuration loader, and context accessors used to pass
// command-scoped values between the CLI layer and command builders.
package utils
