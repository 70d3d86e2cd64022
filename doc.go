// Package session owns the authenticated-user session for the education
// center admin clients: its state machine, its persistence contract, the
// credential refresh protocol, and the failure semantics shared by every
// consumer (UI layer, HTTP layer).
//
// Session lifecycle:
//   - A Manager is constructed empty with Loading set, then Bootstrap
//     reconciles the in-memory state against the persistent Store: restore
//     directly when both credential and user snapshot survive, attempt a
//     single refresh when only the snapshot does, or settle unauthenticated.
//   - All mutations flow through a fixed command set consumed by a pure
//     reducer (Apply), keeping the state machine free of I/O. The Manager
//     wraps the reducer with locking, persistence mirroring, and observer
//     notification.
//
// Credential handling:
//   - The credential is an opaque bearer string issued by the remote
//     authority. It is never verified locally; the only local inspection is
//     a best-effort read of the JWT exp claim to decide between restore and
//     refresh at bootstrap.
//   - Any component that obtains a fresh credential out-of-band (for example
//     an HTTP 401-retry interceptor) pushes it through the Broadcast channel
//     and the Manager adopts it without re-entering the login flow.
//
// Failure semantics:
//   - Login, refresh, and bootstrap failures never escape the public
//     operation boundary. They are reduced to a localized LastError message
//     and an explicit "no result" return so the hosting UI cannot be crashed
//     by an unobserved rejection.
package session
