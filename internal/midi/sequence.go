package midi

import "sort"

// Sequence is an ordered timeline of MIDI events. After loading it is
// immutable for the remainder of the run; the only query is the
// per-block range slice.
type Sequence struct {
	events []Event
	sealed bool
}

// NewSequence returns an empty, unsealed sequence.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Append adds an event during loading. Appending to a sealed sequence is
// ignored.
func (s *Sequence) Append(e Event) {
	if s.sealed {
		return
	}
	s.events = append(s.events, e)
}

// Seal sorts the sequence by timestamp and freezes it. The sort is
// stable so simultaneous events preserve their file order.
func (s *Sequence) Seal() {
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].Timestamp < s.events[j].Timestamp
	})
	s.sealed = true
}

// Len returns the number of events in the sequence.
func (s *Sequence) Len() int {
	return len(s.events)
}

// LastTimestamp returns the timestamp of the final event, or zero for an
// empty sequence.
func (s *Sequence) LastTimestamp() uint64 {
	if len(s.events) == 0 {
		return 0
	}
	return s.events[len(s.events)-1].Timestamp
}

// FillRange appends to out every event whose timestamp lies in
// [start, start+blocksize), rewriting DeltaFrames to the offset within
// the block. It returns true while events remain at or beyond
// start+blocksize; false signals the end of the sequence, which
// terminates the render loop after the current block.
func (s *Sequence) FillRange(start uint64, blocksize int, out *EventList) bool {
	end := start + uint64(blocksize)

	// Binary search for the first event at or after start.
	idx := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].Timestamp >= start
	})

	for ; idx < len(s.events) && s.events[idx].Timestamp < end; idx++ {
		e := s.events[idx]
		e.DeltaFrames = int32(e.Timestamp - start)
		out.Append(e)
	}

	return idx < len(s.events)
}
