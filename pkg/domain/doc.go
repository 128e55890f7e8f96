/*
Package domain contains the core domain models of the statelab engine.

It defines the declarative machine description (Configuration, StateNode,
Transition), the timeline records (HistoryEntry), the public read-only view
of a running machine (Snapshot) and the tagged result of sending an event
(SendResult). The package is kept pure and free of I/O, persistence and
third-party dependencies.

# Key Entities

  - Configuration: states, transitions and the default context of a machine.
  - HistoryEntry: an immutable record of state, context and triggering event.
  - Snapshot: what observers and callers see after every operation.
  - SendResult: applied, no transition, or action failed.
*/
package domain
