package reactive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/Simone-Scheuer/spiralizer-v2/internal/music"
)

var (
	// ErrDecodeFailed wraps malformed or truncated audio data.
	ErrDecodeFailed = errors.New("reactive: decode failed")
	// ErrUnsupportedFormat marks files that decoded but cannot be
	// analyzed (no channels, zero sample rate).
	ErrUnsupportedFormat = errors.New("reactive: unsupported format")
	// ErrPermissionDenied marks capture sources the OS refused.
	ErrPermissionDenied = errors.New("reactive: permission denied")
)

// Source delivers mono float64 samples to the analyzer. Fill blocks
// only as long as the underlying stream does; n < len(dst) signals
// the remainder is silence, (0, nil) signals end of stream.
type Source interface {
	Fill(dst []float64) (n int, err error)
	SampleRate() int
	Close() error
}

// FileSource streams a WAV file, downmixed to mono.
type FileSource struct {
	stream beep.StreamSeekCloser
	format beep.Format
	buf    [][2]float64
}

// OpenWAV opens and validates a WAV file for analysis.
func OpenWAV(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, path, err)
	}
	if format.SampleRate <= 0 || format.NumChannels < 1 {
		s.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return &FileSource{stream: s, format: format}, nil
}

func (f *FileSource) SampleRate() int { return int(f.format.SampleRate) }

// Fill reads up to len(dst) mono samples, averaging the two channels.
func (f *FileSource) Fill(dst []float64) (int, error) {
	if cap(f.buf) < len(dst) {
		f.buf = make([][2]float64, len(dst))
	}
	frames := f.buf[:len(dst)]
	n, ok := f.stream.Stream(frames)
	for i := 0; i < n; i++ {
		dst[i] = (frames[i][0] + frames[i][1]) * 0.5
	}
	if !ok && n == 0 {
		if err := f.stream.Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
	}
	return n, nil
}

func (f *FileSource) Close() error { return f.stream.Close() }

// EngineSource taps the internal synth's output ring, letting the
// visuals react to the music the program itself is generating.
type EngineSource struct {
	eng *music.Engine
}

func NewEngineSource(eng *music.Engine) *EngineSource {
	return &EngineSource{eng: eng}
}

func (es *EngineSource) SampleRate() int { return music.SampleRate }

// Fill copies the most recent rendered samples. The tap never blocks
// and always has data once the engine is running.
func (es *EngineSource) Fill(dst []float64) (int, error) {
	return es.eng.Tap(dst), nil
}

func (es *EngineSource) Close() error { return nil }
