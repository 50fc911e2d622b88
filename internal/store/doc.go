// Package store is the hub's typed key-value record store.
//
// Each record kind is a single row in the records table, keyed by kind.
// Kinds are registered explicitly at startup; reads and writes of an
// unregistered kind fail with ErrKindNotRegistered, so a typo in a kind name
// surfaces immediately instead of creating an orphan row.
//
// Values are encoded with CBOR (Core Deterministic Encoding) and written with
// a single UPSERT statement, so a reader observes either the previous record
// or the new one, never a mix.
package store
