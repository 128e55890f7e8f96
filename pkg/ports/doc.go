/*
Package ports defines the interfaces between the statelab engine and its collaborators.

These interfaces decouple the core from the outer surfaces, allowing the
HTTP and MCP adapters, the REPL and the snapshot publishers to drive or
observe any engine implementation.

# Key Interfaces

  - Engine: the operations of a single live state machine.
  - Sandbox: executes transition actions against copies of context and input.
  - ConfigLoader: produces configurations from files or other sources.
  - SnapshotPublisher: pushes snapshots to an external channel.
*/
package ports
