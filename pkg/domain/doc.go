/*
Package domain contains the core domain models for the parley interview engine.

It defines the session snapshot that flows through the graph, the partial
updates node handlers return, the checkpoint persisted after every node, and
the error kinds shared by every layer. The package is pure and free of I/O.

# Key Entities

  - State: the runtime snapshot of a session (message log, slots, question pool, pending node).
  - Update: the partial state change a node handler returns.
  - Checkpoint: a persisted (session, state, pending node) triple.
  - Message: one entry in the append-only conversation log.
*/
package domain
