// Package procedure implements named request/response calls between hub
// adapters.
//
// A Registry holds one handler per procedure name. Callers either Invoke it
// directly or publish a Call on the broker's "procedure/call" topic once the
// registry has been bound; the Result is published on the call's reply topic.
package procedure
