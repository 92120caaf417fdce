// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"fftplot/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// recorderBlocks is the number of preallocated blocks between the audio
// callback and the writer goroutine.
const recorderBlocks = 64

// Recorder writes interleaved float samples to a WAV file. Write never
// blocks: it copies into a free block and queues it, and when the writer
// falls behind the block is dropped and counted.
type Recorder struct {
	path     string
	file     *os.File
	encoder  *wav.Encoder
	bitDepth int
	channels int
	scale    float64

	free chan []float32
	full chan []float32
	done chan struct{}
	wg   sync.WaitGroup

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	frames  atomic.Uint64
	dropped atomic.Uint64
	errs    atomic.Uint64

	sampleBuf *audio.IntBuffer // writer goroutine only
}

// RecordingPath returns path, or a timestamped file name in dir when path is
// empty.
func RecordingPath(dir, path string) string {
	if path != "" {
		return path
	}
	return filepath.Join(dir, "fftplot-"+time.Now().Format("20060102-150405")+".wav")
}

// NewRecorder creates the file and starts the writer. blockSize is the
// largest number of samples (frames*channels) a single Write may carry
// without being split.
func NewRecorder(path string, sampleRate, channels, bitDepth, blockSize int) (*Recorder, error) {
	switch {
	case channels < 1:
		return nil, fmt.Errorf("recorder needs at least one channel, got %d", channels)
	case bitDepth != 16 && bitDepth != 24 && bitDepth != 32:
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	case sampleRate <= 0:
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	case blockSize < 1:
		return nil, fmt.Errorf("invalid block size %d", blockSize)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create recording directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	r := &Recorder{
		path:     path,
		file:     file,
		encoder:  wav.NewEncoder(file, sampleRate, bitDepth, channels, 1),
		bitDepth: bitDepth,
		channels: channels,
		scale:    math.Exp2(float64(bitDepth-1)) - 1,
		free:     make(chan []float32, recorderBlocks),
		full:     make(chan []float32, recorderBlocks),
		done:     make(chan struct{}),
		sampleBuf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			Data:           make([]int, 0, blockSize),
			SourceBitDepth: bitDepth,
		},
	}
	for range recorderBlocks {
		r.free <- make([]float32, 0, blockSize)
	}

	r.wg.Add(1)
	go r.run()

	log.Infof("Recorder: Writing %s (%d ch @ %d Hz, %d bit)", path, channels, sampleRate, bitDepth)
	return r, nil
}

// Path returns the output file.
func (r *Recorder) Path() string {
	return r.path
}

// Write queues a copy of in. It is safe to call from the audio callback.
func (r *Recorder) Write(in []float32) {
	if r.closed.Load() {
		return
	}
	for len(in) > 0 {
		var block []float32
		select {
		case block = <-r.free:
		default:
			r.dropped.Add(1)
			return
		}

		n := min(len(in), cap(block))
		block = append(block[:0], in[:n]...)
		in = in[n:]

		select {
		case r.full <- block:
		default:
			r.dropped.Add(1)
			r.free <- block[:0]
			return
		}
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for {
		select {
		case block := <-r.full:
			r.encode(block)
		case <-r.done:
			for {
				select {
				case block := <-r.full:
					r.encode(block)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) encode(block []float32) {
	data := r.sampleBuf.Data[:0]
	for _, s := range block {
		v := max(-1, min(1, float64(s)))
		data = append(data, int(math.Round(v*r.scale)))
	}
	r.sampleBuf.Data = data
	r.free <- block[:0]

	if err := r.encoder.Write(r.sampleBuf); err != nil {
		if r.errs.Add(1) == 1 {
			log.Errorf("Recorder: Error writing to %s: %v", r.path, err)
		}
		return
	}
	r.frames.Add(uint64(len(data) / r.channels))
}

// Frames returns the number of frames written to the file.
func (r *Recorder) Frames() uint64 {
	return r.frames.Load()
}

// Dropped returns the number of blocks lost because the writer fell behind.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Close flushes queued blocks and finalises the WAV header. It is idempotent.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.done)
		r.wg.Wait()

		encErr := r.encoder.Close()
		fileErr := r.file.Close()
		if err := errors.Join(encErr, fileErr); err != nil {
			r.closeErr = fmt.Errorf("failed to finalise recording: %w", err)
		}
		log.Infof("Recorder: Closed %s (%d frames, %d blocks dropped)", r.path, r.frames.Load(), r.dropped.Load())
	})
	return r.closeErr
}
