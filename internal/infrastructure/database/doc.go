// Package database provides the SQLite storage engine for the Gray Logic Hub.
//
// The hub persists very little: the identity and broker credentials issued
// during bootstrap, the generated device identity and per-device
// configuration. SQLite in WAL mode with a single connection gives atomic
// single-statement writes, which is all the credential store relies on.
//
// Schema changes are forward-only SQL files embedded by the migrations
// package and applied by Migrate at startup.
package database
