package audio

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultSampleRate is the mixer rate; sources at other rates are resampled.
	DefaultSampleRate = beep.SampleRate(44100)

	cacheExpiration = 10 * time.Minute
	cacheCleanup    = 15 * time.Minute
)

// Engine owns the speaker and a cache of decoded buffers shared by all outputs.
type Engine struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Whether speaker has been initialized
	initialized bool
	sampleRate  beep.SampleRate

	cache *gocache.Cache
}

// NewEngine creates a new audio engine. The speaker is initialized lazily on first playback.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		logger:     logger,
		sampleRate: DefaultSampleRate,
		cache:      gocache.New(cacheExpiration, cacheCleanup),
	}
}

var decodable = []string{"wav", "ogg", "mp3", "flac"}

// SupportedFormats returns the extensions the engine can decode.
func SupportedFormats() []string {
	return slices.Clone(decodable)
}

// CanDecode reports whether ext (with or without a leading dot, any case)
// has a decoder.
func CanDecode(ext string) bool {
	return slices.Contains(decodable, strings.ToLower(strings.TrimPrefix(ext, ".")))
}

// Decode loads and decodes a sound file into a buffer, using the cache when possible.
func (e *Engine) Decode(path string) (*beep.Buffer, error) {
	if cached, ok := e.cache.Get(path); ok {
		return cached.(*beep.Buffer), nil
	}

	buffer, err := e.loadSound(path)
	if err != nil {
		return nil, err
	}

	e.cache.SetDefault(path, buffer)
	e.logger.Debug("decoded sound", "path", path, "samples", buffer.Len())
	return buffer, nil
}

func (e *Engine) loadSound(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer func() { _ = f.Close() }()

	streamer, format, err := decode(f, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	defer func() { _ = streamer.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)

	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}

	return buffer, nil
}

// decode picks a decoder by file extension.
func decode(f io.ReadCloser, ext string) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "wav":
		streamer, format, err = wav.Decode(f)
	case "ogg":
		streamer, format, err = vorbis.Decode(f)
	case "mp3":
		streamer, format, err = mp3.Decode(f)
	case "flac":
		streamer, format, err = flac.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format: %s", ext)
	}

	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to decode sound: %w", err)
	}
	return streamer, format, nil
}

// ensureInitialized initializes the speaker if not already done.
func (e *Engine) ensureInitialized() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	// Use a reasonable buffer size for low latency
	bufferSize := e.sampleRate.N(time.Millisecond * 100)

	if err := speaker.Init(e.sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	e.initialized = true
	e.logger.Debug("speaker initialized", "sample_rate", e.sampleRate)
	return nil
}

// stream builds a playable streamer for buffer at the mixer rate.
func (e *Engine) stream(buffer *beep.Buffer, loop bool) (beep.Streamer, error) {
	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())

	if loop {
		looped, err := beep.Loop2(buffer.Streamer(0, buffer.Len()))
		if err != nil {
			return nil, fmt.Errorf("failed to loop sound: %w", err)
		}
		streamer = looped
	}

	if buffer.Format().SampleRate != e.sampleRate {
		streamer = beep.Resample(4, buffer.Format().SampleRate, e.sampleRate, streamer)
	}

	return streamer, nil
}

// Invalidate removes a path from the buffer cache.
func (e *Engine) Invalidate(path string) {
	e.cache.Delete(path)
}

// ClearCache clears the buffer cache.
func (e *Engine) ClearCache() {
	e.cache.Flush()
	e.logger.Debug("sound cache cleared")
}

// Cached reports the number of decoded buffers held.
func (e *Engine) Cached() int {
	return e.cache.ItemCount()
}

// Close stops all playback and releases resources.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.initialized {
		speaker.Clear()
		speaker.Close()
		e.initialized = false
	}
	e.mu.Unlock()

	e.ClearCache()
	e.logger.Debug("audio engine closed")
}
