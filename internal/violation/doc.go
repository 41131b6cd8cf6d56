// Package violation converts raw scan hits into scored, categorized
// violation records: severity resolution, risk scoring, category labels,
// and compliance-framework tags. It is deterministic and does no I/O.
package violation
