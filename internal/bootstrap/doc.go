// Package bootstrap establishes trust with the identity service before any
// command traffic flows.
//
// The state machine runs once per process start:
//
//	Unpaired ──pair──▶ PairedAwaitingLogin ──login──▶ (broker creds) ──▶ Authenticated
//	    │                      │                           │
//	    └──────────────────────┴───────────────────────────┴──▶ Degraded
//
// A device that is already paired logs in again on every start; it never
// re-pairs. Transport credentials fetched once are reused until replaced.
// Failures are logged at critical level and returned in Result.Err so the
// process supervisor can apply its degraded policy.
package bootstrap
