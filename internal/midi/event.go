// Package midi provides the MIDI timeline for the plugin host: events
// with absolute sample timestamps, the immutable sequence with its
// block-range slice query, and the standard MIDI file loader.
package midi

import "fmt"

// Event is a single channel voice message positioned on the sample
// timeline. Timestamp is the absolute sample position assigned at load
// time; DeltaFrames is the offset within the containing block and is
// rewritten on every slice so that 0 <= DeltaFrames < blocksize.
type Event struct {
	DeltaFrames int32
	Status      byte
	Data1       byte
	Data2       byte
	Timestamp   uint64
}

// String returns a compact representation for debug logs.
func (e Event) String() string {
	return fmt.Sprintf("Event{status:%#02x, data:%d/%d, ts:%d, delta:%d}",
		e.Status, e.Data1, e.Data2, e.Timestamp, e.DeltaFrames)
}

// Channel returns the channel of a channel voice message.
func (e Event) Channel() byte {
	return e.Status & 0x0F
}

// Command returns the status nibble of a channel voice message.
func (e Event) Command() byte {
	return e.Status & 0xF0
}

// EventList is a reusable list of events for one block. The engine owns
// one list and clears it before each slice query.
type EventList struct {
	events []Event
}

// NewEventList returns an empty list with room for a typical block.
func NewEventList() *EventList {
	return &EventList{events: make([]Event, 0, 64)}
}

// Append adds an event to the list.
func (l *EventList) Append(e Event) {
	l.events = append(l.events, e)
}

// Clear empties the list, keeping its capacity.
func (l *EventList) Clear() {
	l.events = l.events[:0]
}

// Len returns the number of events in the list.
func (l *EventList) Len() int {
	return len(l.events)
}

// Events returns the underlying slice in order.
func (l *EventList) Events() []Event {
	return l.events
}
