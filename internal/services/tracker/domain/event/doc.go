// Package event defines the canonical event envelope and event-type registry
// used by the tracker write path.
//
// Events are immutable observed facts: a comment was added, an aircraft was
// favourited, a tracked aircraft moved. The registry enforces aggregate
// addressing and payload validity before persistence assigns the sequence
// number that breaks occurred-at ties.
//
// A stable event contract is the foundation for replay, projection
// correctness, and point-in-time snapshot reconstruction; every derived view
// in the system is rebuilt from these envelopes alone.
package event
