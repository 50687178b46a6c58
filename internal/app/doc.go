// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle: construct
// one objective, score one batch of molecules, and report the result. It is
// decoupled from any specific entrypoint like a CLI.
package app
