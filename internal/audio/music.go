package audio

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/vorbis"
)

// Music streams an OGG Vorbis file in an endless loop.
// Decoding is on demand, so only a small buffer is held in memory.
type Music struct {
	mu     sync.Mutex
	source beep.StreamSeekCloser
	stream beep.Streamer // resampled and volume-scaled source
	path   string
	loops  int
}

// LoadMusic opens path and prepares it for playback at sr.
func LoadMusic(path string, sr beep.SampleRate, volume float64) (*Music, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open music: %w", err)
	}

	// Decode sets up streaming, not a full decode
	source, format, err := vorbis.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	var s beep.Streamer = source
	if format.SampleRate != sr {
		log.Printf("   Resampling music from %d Hz to %d Hz", format.SampleRate, sr)
		s = beep.Resample(4, format.SampleRate, sr, source)
	}

	log.Printf("✅ Background music loaded: %s", path)
	return &Music{
		source: source,
		stream: withVolume(s, volume),
		path:   path,
	}, nil
}

// Stream implements beep.Streamer. At the end of the file it seeks back to
// the start and keeps filling, so the mixer never sees it finish.
func (m *Music) Stream(samples [][2]float64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.source == nil {
		return 0, false
	}

	filled, empty := 0, 0
	for filled < len(samples) {
		n, ok := m.stream.Stream(samples[filled:])
		filled += n
		if ok && n > 0 {
			empty = 0
			continue
		}
		if n == 0 {
			// Two empty reads in a row: the file has no audio at all
			if empty++; empty > 1 {
				return filled, filled > 0
			}
		}
		if err := m.source.Seek(0); err != nil {
			log.Printf("⚠️ Music loop seek failed: %v", err)
			return filled, filled > 0
		}
		m.loops++
	}
	return filled, true
}

// Err implements beep.Streamer.
func (m *Music) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.source == nil {
		return nil
	}
	return m.source.Err()
}

// Close releases the decoder and file.
func (m *Music) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.source == nil {
		return nil
	}
	err := m.source.Close()
	m.source = nil
	return err
}

// Loops returns how many times the track wrapped around.
func (m *Music) Loops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loops
}
