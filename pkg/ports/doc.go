/*
Package ports defines the driven ports (interfaces) of the parley engine.

These interfaces decouple the executor and session controller from storage
backends and from the natural-language services the interview depends on.

# Key Interfaces

  - StateStore: persists and loads session checkpoints.
  - DistributedLocker: serializes access to a session across replicas.
  - Classifier: turns free text into a small structured verdict per stage.
  - Generator: produces the question pool for a topic and difficulty.
*/
package ports
