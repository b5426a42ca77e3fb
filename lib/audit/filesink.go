// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/gatehouse-dev/gatehouse/lib/clock"
)

// DefaultMaxSegmentBytes is the rotation threshold when the caller
// does not set one.
const DefaultMaxSegmentBytes = 16 << 20

// DefaultQueueSize bounds the async writer queue.
const DefaultQueueSize = 1024

// FileSinkOptions configures a FileSink.
type FileSinkOptions struct {
	// Path is the active JSONL file. Rotated segments land next to it
	// as <base>-<timestamp>.jsonl.zst.
	Path string

	// MaxSegmentBytes triggers rotation when the active file reaches
	// it. Zero means DefaultMaxSegmentBytes.
	MaxSegmentBytes int64

	// QueueSize bounds the writer queue. Zero means DefaultQueueSize.
	QueueSize int

	// Clock stamps rotated segment names. Nil means the real clock.
	Clock clock.Clock

	// Logger receives rotation and write-failure messages.
	Logger *slog.Logger
}

// FileSink appends records as JSON lines through a single writer
// goroutine. When the active file reaches the size threshold it is
// rotated out and compressed with zstd; the active file always stays
// plain text so `tail -f` works.
type FileSink struct {
	path    string
	maxSize int64
	clock   clock.Clock
	logger  *slog.Logger

	queue chan Record

	// stopping wakes emitters parked on a full queue; done marks the
	// writer goroutine's exit. The queue channel itself is closed only
	// after every in-flight Emit has returned, so a send can never race
	// the close.
	stopping chan struct{}
	done     chan struct{}

	mu       sync.Mutex
	closed   bool
	emitters sync.WaitGroup

	file *os.File
	size int64
}

// NewFileSink opens (or creates) the active file and starts the writer
// goroutine.
func NewFileSink(opts FileSinkOptions) (*FileSink, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("audit: file sink requires a path")
	}
	maxSize := opts.MaxSegmentBytes
	if maxSize <= 0 {
		maxSize = DefaultMaxSegmentBytes
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o700); err != nil {
		return nil, fmt.Errorf("audit: creating audit directory: %w", err)
	}
	file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: opening %s: %w", opts.Path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("audit: stat %s: %w", opts.Path, err)
	}

	s := &FileSink{
		path:     opts.Path,
		maxSize:  maxSize,
		clock:    clk,
		logger:   logger,
		queue:    make(chan Record, queueSize),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
		file:     file,
		size:     info.Size(),
	}
	go s.writeLoop()
	return s, nil
}

// Emit queues the record. Blocks when the queue is full rather than
// dropping: the trail stays complete at the cost of request latency
// under sustained disk pressure.
func (s *FileSink) Emit(rec Record) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("audit: file sink is closed")
	}
	s.emitters.Add(1)
	s.mu.Unlock()
	defer s.emitters.Done()

	select {
	case s.queue <- rec:
		return nil
	case <-s.stopping:
		return fmt.Errorf("audit: file sink is closed")
	}
}

// Close drains the queue, flushes, and closes the active file. Emits
// racing Close either land in the queue and are written, or return the
// closed error; the queue channel is closed only once no send can be
// pending.
func (s *FileSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stopping)
	s.mu.Unlock()

	s.emitters.Wait()
	close(s.queue)

	<-s.done
	return s.file.Close()
}

func (s *FileSink) writeLoop() {
	defer close(s.done)
	for rec := range s.queue {
		if err := s.writeRecord(rec); err != nil {
			s.logger.Error("audit write failed", "path", s.path, "error", err)
		}
	}
	if err := s.file.Sync(); err != nil {
		s.logger.Error("audit sync failed", "path", s.path, "error", err)
	}
}

func (s *FileSink) writeRecord(rec Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	line = append(line, '\n')

	n, err := s.file.Write(line)
	s.size += int64(n)
	if err != nil {
		return fmt.Errorf("appending record: %w", err)
	}
	if s.size >= s.maxSize {
		if err := s.rotate(); err != nil {
			return fmt.Errorf("rotating segment: %w", err)
		}
	}
	return nil
}

// rotate moves the active file aside, compresses it, and reopens a
// fresh active file. Runs on the writer goroutine only.
func (s *FileSink) rotate() error {
	if err := s.file.Close(); err != nil {
		return err
	}

	stamp := s.clock.Now().UTC().Format("20060102T150405.000")
	base := strings.TrimSuffix(s.path, filepath.Ext(s.path))
	rotated := fmt.Sprintf("%s-%s.jsonl", base, stamp)
	if err := os.Rename(s.path, rotated); err != nil {
		return err
	}

	if err := compressSegment(rotated); err != nil {
		// The uncompressed segment is intact; log and carry on.
		s.logger.Warn("segment compression failed", "segment", rotated, "error", err)
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	s.file = file
	s.size = 0
	s.logger.Info("audit segment rotated", "segment", rotated)
	return nil
}

// compressSegment writes <segment>.zst and removes the plain segment
// on success.
func compressSegment(segment string) error {
	in, err := os.Open(segment)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(segment+".zst", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		out.Close()
		return err
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		out.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(segment)
}
