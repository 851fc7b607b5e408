/*
Package ports defines the driven ports (interfaces) of the dialog.

These interfaces decouple the state machine from the services it consults, so the same
dialog runs against live services, caches or test doubles.

# Key Interfaces

  - PayphoneLocator: finds payphones by (possibly wildcarded) cabinet identifier.
  - DirectionsProvider: computes routes from a payphone to the destination.
  - Cache: a byte cache with per-entry expiry, used to avoid repeating lookups.
*/
package ports
