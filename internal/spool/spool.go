// Package spool buffers document content between handlers.
//
// Content stays in memory until it exceeds a threshold, then moves to a
// temporary file, optionally compressed. A finished spool can be opened
// any number of times, each reader starting at the beginning.
package spool

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec compresses spool files.
type Codec string

const (
	CodecNone Codec = "none"
	CodecZstd Codec = "zstd"
	CodecLZ4  Codec = "lz4"
)

// DefaultThreshold is the in-memory limit when none is configured.
const DefaultThreshold = 1 << 20

// ErrFinished is returned when writing to a finished spool.
var ErrFinished = errors.New("spool: write after finish")

// ParseCodec resolves a configured codec name. Empty means none.
func ParseCodec(s string) (Codec, error) {
	switch Codec(s) {
	case "", CodecNone:
		return CodecNone, nil
	case CodecZstd, CodecLZ4:
		return Codec(s), nil
	}
	return "", fmt.Errorf("unknown spool codec %q", s)
}

// Option configures a spool.
type Option func(*Spool)

// WithThreshold sets the in-memory limit in bytes.
func WithThreshold(n int64) Option {
	return func(s *Spool) {
		if n > 0 {
			s.threshold = n
		}
	}
}

// WithCodec sets the compression of spool files.
func WithCodec(c Codec) Option {
	return func(s *Spool) {
		s.codec = c
	}
}

// WithDir sets the directory of spool files.
func WithDir(dir string) Option {
	return func(s *Spool) {
		s.dir = dir
	}
}

// Spool is a write-once, read-many content buffer.
// It is not safe for concurrent use.
type Spool struct {
	threshold int64
	codec     Codec
	dir       string

	buf      bytes.Buffer
	file     *os.File
	enc      io.WriteCloser
	size     int64
	finished bool
}

// New creates an empty spool.
func New(opts ...Option) *Spool {
	s := &Spool{threshold: DefaultThreshold, codec: CodecNone}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Factory creates spools sharing the same options.
type Factory struct {
	opts []Option
}

// NewFactory returns a factory applying opts to each spool.
func NewFactory(opts ...Option) *Factory {
	return &Factory{opts: opts}
}

// New creates an empty spool.
func (f *Factory) New() *Spool {
	if f == nil {
		return New()
	}
	return New(f.opts...)
}

// Write appends p to the spool.
func (s *Spool) Write(p []byte) (int, error) {
	if s.finished {
		return 0, ErrFinished
	}
	if s.file == nil && s.size+int64(len(p)) > s.threshold {
		if err := s.overflow(); err != nil {
			return 0, err
		}
	}

	var n int
	var err error
	if s.file != nil {
		n, err = s.enc.Write(p)
	} else {
		n, err = s.buf.Write(p)
	}
	s.size += int64(n)
	return n, err
}

// overflow moves buffered content to a temporary file.
func (s *Spool) overflow() error {
	f, err := os.CreateTemp(s.dir, "importer-spool-*")
	if err != nil {
		return fmt.Errorf("failed to create spool file: %w", err)
	}

	enc, err := s.encoder(f)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if _, err := enc.Write(s.buf.Bytes()); err != nil {
		enc.Close()
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("failed to write spool file: %w", err)
	}

	s.file = f
	s.enc = enc
	s.buf = bytes.Buffer{}
	return nil
}

func (s *Spool) encoder(f *os.File) (io.WriteCloser, error) {
	switch s.codec {
	case CodecZstd:
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		return enc, nil
	case CodecLZ4:
		return lz4.NewWriter(f), nil
	}
	return nopWriteCloser{f}, nil
}

// Finish ends writing. It must be called before Open.
func (s *Spool) Finish() error {
	if s.finished {
		return nil
	}
	s.finished = true
	if s.enc != nil {
		if err := s.enc.Close(); err != nil {
			return fmt.Errorf("failed to flush spool file: %w", err)
		}
	}
	return nil
}

// Size returns the number of content bytes written.
func (s *Spool) Size() int64 {
	return s.size
}

// OnDisk reports whether content moved to a file.
func (s *Spool) OnDisk() bool {
	return s.file != nil
}

// Open returns a reader over the full content.
func (s *Spool) Open() (io.ReadCloser, error) {
	if !s.finished {
		if err := s.Finish(); err != nil {
			return nil, err
		}
	}
	if s.file == nil {
		return io.NopCloser(bytes.NewReader(s.buf.Bytes())), nil
	}

	f, err := os.Open(s.file.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to open spool file: %w", err)
	}
	switch s.codec {
	case CodecZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		return &decodingReader{Reader: dec, close: func() error { dec.Close(); return f.Close() }}, nil
	case CodecLZ4:
		return &decodingReader{Reader: lz4.NewReader(f), close: f.Close}, nil
	}
	return f, nil
}

// Release removes any temporary file. The spool is unusable afterwards.
func (s *Spool) Release() error {
	s.buf = bytes.Buffer{}
	if s.file == nil {
		return nil
	}
	if !s.finished && s.enc != nil {
		s.enc.Close()
	}
	s.finished = true
	name := s.file.Name()
	closeErr := s.file.Close()
	s.file = nil
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return err
	}
	return closeErr
}

// ReadFrom copies r into the spool and finishes it.
func (s *Spool) ReadFrom(r io.Reader) (int64, error) {
	n, err := io.Copy(writerOnly{s}, r)
	if err != nil {
		return n, err
	}
	return n, s.Finish()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type decodingReader struct {
	io.Reader
	close func() error
}

func (d *decodingReader) Close() error { return d.close() }

// writerOnly hides ReadFrom so io.Copy does not recurse.
type writerOnly struct {
	io.Writer
}
