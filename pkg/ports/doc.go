/*
Package ports defines the driven ports (interfaces) for the geosolve pipeline.

These interfaces decouple the session controller from external implementations,
so the same pipeline runs against a real solver over HTTP or a fake one in tests,
saves exports to disk or memory, and coordinates across replicas when needed.

# Key Interfaces

  - Solver: performs one request/response exchange with the remote solver.
  - BusyIndicator: shows or hides the busy state for the duration of a solve.
  - ArtifactStore: receives exported documents (the "save as" target).
  - DistributedLocker: provides distributed locking for concurrent session access.
*/
package ports
