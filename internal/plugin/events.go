package plugin

import (
	"unsafe"

	"github.com/tphakala/plughost/internal/midi"
)

// VST2 event packing. The dispatcher's EffProcessEvents opcode takes a
// pointer to a VstEvents block laid out exactly as the C SDK defines it,
// so the structs below must keep that layout.

const (
	vstMidiType = 1

	// maxBlockEvents bounds how many events one block can carry to the
	// plugin. The slice query may deliver several events on the same
	// frame, so a block can hold more; packEvents drops the excess.
	maxBlockEvents = 4096
)

// vstMidiEvent mirrors the C VstMidiEvent struct.
type vstMidiEvent struct {
	eventType       int32
	byteSize        int32
	deltaFrames     int32
	flags           int32
	noteLength      int32
	noteOffset      int32
	midiData        [4]byte
	detune          int8
	noteOffVelocity uint8
	reserved1       uint8
	reserved2       uint8
}

// vstEvents mirrors the C VstEvents struct header followed by the event
// pointer array.
type vstEvents struct {
	numEvents int32
	reserved  uintptr
	events    [maxBlockEvents]*vstMidiEvent
}

// eventScratch is reused for every block; the engine is single-threaded
// so one scratch block suffices.
var eventScratch struct {
	block  vstEvents
	events [maxBlockEvents]vstMidiEvent
}

// packEvents converts a block's event list into the VST2 wire layout.
// Events beyond the scratch capacity are dropped; numEvents counts only
// the packed events.
func packEvents(list *midi.EventList) *vstEvents {
	events := list.Events()
	n := len(events)
	if n > maxBlockEvents {
		n = maxBlockEvents
	}

	for i := 0; i < n; i++ {
		e := &eventScratch.events[i]
		*e = vstMidiEvent{
			eventType:   vstMidiType,
			byteSize:    int32(unsafe.Sizeof(vstMidiEvent{})),
			deltaFrames: events[i].DeltaFrames,
		}
		e.midiData[0] = events[i].Status
		e.midiData[1] = events[i].Data1
		e.midiData[2] = events[i].Data2
		eventScratch.block.events[i] = e
	}
	eventScratch.block.numEvents = int32(n)
	return &eventScratch.block
}
