package midi

import (
	"log/slog"
	"sort"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/tphakala/plughost/internal/errors"
	"github.com/tphakala/plughost/internal/logging"
)

// Component identifier for midi errors
const ComponentMIDI = "midi"

// Default tempo when a file carries no tempo event, per the SMF spec.
const defaultBPM = 120.0

// FileSource loads a Type-0 or Type-1 standard MIDI file into a
// Sequence. Streaming MIDI input is not supported; the whole file is
// materialized before the render loop starts.
type FileSource struct {
	path       string
	sampleRate float64
	data       *smf.SMF
}

// NewFileSource returns an unopened MIDI file source. The sample rate is
// used to assign absolute sample timestamps to events.
func NewFileSource(path string, sampleRate float64) *FileSource {
	return &FileSource{path: path, sampleRate: sampleRate}
}

// Name returns the file path.
func (fs *FileSource) Name() string { return fs.path }

// Open reads and parses the MIDI file.
func (fs *FileSource) Open() error {
	data, err := smf.ReadFile(fs.path)
	if err != nil {
		return errors.New(err).
			Component(ComponentMIDI).
			Category(errors.CategoryFileIO).
			FileContext(fs.path).
			Build()
	}
	fs.data = data
	return nil
}

// tempoPoint is one entry of the resolved tempo map: the wall-clock time
// at which a tick position is reached, and the tempo from there on.
type tempoPoint struct {
	tick uint64
	bpm  float64
	at   time.Duration
}

// ReadAll converts every channel voice message into a timestamped event
// and appends it to seq, then seals the sequence. Events are walked in
// file order; the stable sort in Seal keeps that order for simultaneous
// events.
func (fs *FileSource) ReadAll(seq *Sequence) error {
	if fs.data == nil {
		return errors.Newf("MIDI source %s is not open", fs.path).
			Component(ComponentMIDI).
			Category(errors.CategoryState).
			Build()
	}

	log := logging.ForService("midi")

	ticks, ok := fs.data.TimeFormat.(smf.MetricTicks)
	if !ok {
		// SMPTE time division is exotic in practice; treated as a parse
		// warning with the metric default substituted.
		log.Warn("unsupported SMPTE time format, assuming metric ticks",
			"path", fs.path, "format", fs.data.TimeFormat)
		ticks = smf.MetricTicks(960)
	}

	tempoMap := fs.buildTempoMap(ticks, log)

	skipped := 0
	for _, track := range fs.data.Tracks {
		var absTick uint64
		for _, ev := range track {
			absTick += uint64(ev.Delta)

			msg := ev.Message
			var bpm float64
			if msg.GetMetaTempo(&bpm) {
				continue // already folded into the tempo map
			}

			raw := msg.Bytes()
			if len(raw) == 0 || raw[0] < 0x80 || raw[0] >= 0xF0 {
				skipped++
				continue
			}

			event := Event{
				Status:    raw[0],
				Timestamp: fs.sampleAt(ticks, tempoMap, absTick),
			}
			if len(raw) > 1 {
				event.Data1 = raw[1]
			}
			if len(raw) > 2 {
				event.Data2 = raw[2]
			}
			seq.Append(event)
		}
	}
	seq.Seal()

	if skipped > 0 {
		log.Debug("skipped non-channel messages", "path", fs.path, "count", skipped)
	}
	log.Info("MIDI file loaded",
		"path", fs.path,
		"events", seq.Len(),
		"last_timestamp", seq.LastTimestamp())
	return nil
}

// buildTempoMap collects tempo changes from every track and resolves
// each to its absolute wall-clock time.
func (fs *FileSource) buildTempoMap(ticks smf.MetricTicks, log *slog.Logger) []tempoPoint {
	type change struct {
		tick uint64
		bpm  float64
	}
	var changes []change
	for _, track := range fs.data.Tracks {
		var absTick uint64
		for _, ev := range track {
			absTick += uint64(ev.Delta)
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) {
				if bpm <= 0 {
					log.Warn("ignoring tempo event with non-positive BPM",
						"path", fs.path, "tick", absTick, "bpm", bpm)
					continue
				}
				changes = append(changes, change{tick: absTick, bpm: bpm})
			}
		}
	}
	// Type-1 files keep tempo in track 0, but tracks are merged here, so
	// restore global tick order before resolving times.
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].tick < changes[j].tick })

	tempoMap := []tempoPoint{{tick: 0, bpm: defaultBPM}}
	for _, c := range changes {
		prev := tempoMap[len(tempoMap)-1]
		if c.tick == prev.tick {
			tempoMap[len(tempoMap)-1].bpm = c.bpm
			continue
		}
		at := prev.at + ticks.Duration(prev.bpm, uint32(c.tick-prev.tick))
		tempoMap = append(tempoMap, tempoPoint{tick: c.tick, bpm: c.bpm, at: at})
	}
	return tempoMap
}

// sampleAt converts an absolute tick position to an absolute sample
// position through the tempo map.
func (fs *FileSource) sampleAt(ticks smf.MetricTicks, tempoMap []tempoPoint, tick uint64) uint64 {
	p := tempoMap[0]
	for i := len(tempoMap) - 1; i >= 0; i-- {
		if tempoMap[i].tick <= tick {
			p = tempoMap[i]
			break
		}
	}
	at := p.at + ticks.Duration(p.bpm, uint32(tick-p.tick))
	return uint64(at.Seconds() * fs.sampleRate)
}
