// Package scan contains the core compliance scanning logic for Complyscan.
// It matches rules to table columns, dispatches category-specific checkers
// against the backend, and aggregates potential violations into a scan
// result. This package is internal; external consumers should use the
// stable facade in pkg/core.
package scan
