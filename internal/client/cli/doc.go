// Package cli provides the interactive DoseKeeper command-line client.
//
// App drives a session store from a read-eval-print loop: account
// registration and login, profile and avatar edits, and dose tracking.
// Developer commands (routes, diag, reset) are available when the dev menu
// is enabled in configuration.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
