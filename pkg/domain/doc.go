/*
Package domain contains the core types of the telephone dialog.

It defines the entities the dialog reasons about (payphones, routes, travel modes), the
outcome errors a turn can end with, and the hooks used to observe turns. The package is
pure and free of I/O so the state machine built on it stays deterministic.

# Key Entities

  - Payphone: a candidate returned by the payphone lookup.
  - Route: directions from a payphone to the configured destination, as legs and steps.
  - State: the name of a dialog state, which maps one-to-one onto a callback endpoint.
  - TurnEvent: a record of one inbound callback and the outcome it produced.
*/
package domain
