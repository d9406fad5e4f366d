/*
Package domain contains the core data model of the geosolve pipeline.

It defines the wire contract with the remote solver (Request, SolveResponse),
the per-session status snapshot shown to viewers (Status) and its incremental
form (StatusDiff), the lifecycle hooks used for observability and the error
taxonomy shared by every stage. The package is free of I/O.

# Key Entities

  - Request: the definition identifier plus geometry buckets and scalar params.
  - SolveResponse: a list of outputs, each a tree of path -> items.
  - Item: one decodable leaf with a type tag and an opaque JSON payload.
  - Status: what a viewer sees (busy flag, message, export availability).
*/
package domain
