// Package ledger provides SQLite-backed durable storage for slots and the
// invocation log of the in-process host.
//
// The ledger holds:
//   - Slots: fixed-capacity record buffers with their permission flags
//   - Invocations: an append-only log of every payload the host dispatched,
//     successful or not, with the fault code of failures
//
// # Invariants
//
//   - length(slots.data) = slots.capacity, enforced by a CHECK constraint
//   - Slot bytes change only inside the transaction that records the
//     successful invocation which produced them
//   - All listings are ordered by a logical sequence, never timestamps
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - One open connection: the host is the single writer for every slot
package ledger
