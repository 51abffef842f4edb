// Package cli wires the codeqlup root command: configuration loading with
// Viper, structured logging with zap, signal-aware execution, and the
// migrate subcommand that performs the CodeQL Action upgrade.
package cli
