// Package model holds the domain types for helm: voyages, observation
// targets, and the actions that get sealed into a voyage's logbook.
//
// Targets are pure identity — they describe WHAT was observed, never how
// much detail to fetch. Two targets that denote the same logical resource
// serialize to byte-identical canonical keys, because the slate and erase
// operations match on that serialized form.
//
// Canonical serialization follows RFC 8785: object keys sorted by UTF-16
// code units, NFC-normalized strings, no HTML escaping, and no floats.
package model
