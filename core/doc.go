// Package core holds the domain model and operations for synchronizing local
// identity records with an external OAuth-based scheduling provider:
// create-or-adopt provisioning, atomic token refresh, availability
// confirmation, and staleness selection for the reminder batch.
//
// The HTTP surface, the provider's internals, and the notification transport
// are collaborators specified only at their interfaces.
package core
