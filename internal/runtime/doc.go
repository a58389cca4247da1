// Package runtime contains the Executor, the loop that walks a graph.Definition
// one node at a time, checkpointing after every step, until the session either
// reaches an interrupt-before node or the terminal marker.
package runtime
