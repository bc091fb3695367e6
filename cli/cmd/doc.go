// Package cmd implements the esp subcommands.
//
// Each command is a kong command struct whose Run method receives the
// [context.Context] and the [*Session] bound by the cli package. The session
// carries one interpreter shared by the --source files, the command's own
// input, and (for repl) every line the user enters.
package cmd
