// Package event defines the interaction-event vocabulary and the wire
// record emitted for every participant interaction.
//
// Records are append-only: the client writes them and never reads them
// back. Delivery is best-effort (see internal/sink); event loss on
// transport failure is acceptable, duplicated session state is not.
package event
