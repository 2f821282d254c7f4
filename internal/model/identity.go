// Package model defines the data types, RPC seam, and error taxonomy shared
// by the UAM client's internal components (monitor, queue, heartbeat,
// reregister, rpcproxy) and its public package. It is the analogue of the
// teacher repository's shared/types and shared/proto packages: a leaf
// package with no dependency on the rest of the tree, imported by everything
// else so the internal components never need to import the public package
// back (which would cycle).
package model

import "fmt"

// ApplicationID is the CRM's opaque, globally unique application handle.
type ApplicationID string

// AttemptID identifies one attempt of an application. Only the first attempt
// is ever used by a UAM — see spec invariant: attempt_id is set exactly once.
type AttemptID struct {
	ApplicationID ApplicationID
	AttemptNumber int32
}

func (a AttemptID) String() string {
	return fmt.Sprintf("%s_%06d", a.ApplicationID, a.AttemptNumber)
}

// AMRMToken is the bearer credential binding an attempt to a principal,
// authorizing calls on the master RPC protocol. It may be rotated by the CRM
// mid-session; the CredentialStore holding it reflects whatever value was
// most recently observed.
type AMRMToken struct {
	// Identifier names the key material (e.g. a key id); opaque to this package.
	Identifier string
	// Material is the opaque bearer blob sent as RPC auth metadata.
	Material []byte
}

// Principal is the identity a proxy acts as. ProxyUser is always derived
// from a base principal tagged with the owning attempt id — this package
// never performs ambient/global current-user lookups (spec Design Notes:
// "pass the caller's identity explicitly into the constructor").
type Principal struct {
	Name      string
	AttemptID AttemptID
}
