// Package complyscan provides the command-line interface for the
// Complyscan tool. It configures subcommands (scan, tables, rules),
// parses flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/complyscan/complyscan/cmd/complyscan"
//	func main() { complyscan.Execute() }
package complyscan
