// Package core is the stable public facade over the internal scanning and
// scoring engine. External programs should import this package rather
// than internal ones.
package core
