package core

// streaming.go provides reader wrappers applied to source files before parsing:
//
//   - skipBOM: Removes a leading UTF-8 BOM (0xEF 0xBB 0xBF) written by Windows tools
//   - UTF8Sanitizer: Replaces invalid UTF-8 bytes with '?'
//   - CountingReader: Tracks bytes read for the per-file log summary
//
// Use wrapSource to apply all of them in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned after a leading UTF-8 BOM, if present.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// UTF8Sanitizer wraps an io.Reader and replaces invalid UTF-8 bytes with '?'.
// Input is read through a private buffer, so a multi-byte sequence split across
// reads is completed before anything is handed out, whatever the size of p.
type UTF8Sanitizer struct {
	reader  io.Reader
	buf     []byte // scratch for the underlying reader
	pending []byte // raw bytes not yet sanitized (an incomplete trailing rune)
	out     []byte // sanitized bytes not yet returned
	outBuf  []byte
	err     error // sticky error from the underlying reader
}

// NewUTF8Sanitizer creates a new sanitizing reader.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{
		reader:  r,
		buf:     make([]byte, 4096),
		pending: make([]byte, 0, 4096+utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		n, err := s.reader.Read(s.buf)
		s.pending = append(s.pending, s.buf[:n]...)
		s.err = err
		s.sanitize(err != nil)
		if n == 0 && err == nil {
			return 0, nil
		}
	}

	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// sanitize moves pending bytes to out, replacing invalid sequences.
// Unless atEOF, an incomplete trailing sequence stays in pending.
func (s *UTF8Sanitizer) sanitize(atEOF bool) {
	data := s.pending
	s.outBuf = s.outBuf[:0]

	if isASCII(data) {
		s.outBuf = append(s.outBuf, data...)
		s.pending = s.pending[:0]
		s.out = s.outBuf
		return
	}

	read := 0
	for read < len(data) {
		if data[read] < utf8.RuneSelf {
			s.outBuf = append(s.outBuf, data[read])
			read++
			continue
		}
		if !atEOF && !utf8.FullRune(data[read:]) {
			break
		}
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			s.outBuf = append(s.outBuf, '?')
			read++
			continue
		}
		s.outBuf = append(s.outBuf, data[read:read+size]...)
		read += size
	}
	s.pending = append(s.pending[:0], data[read:]...)
	s.out = s.outBuf
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// wrapSource wraps a file with byte counting, BOM skipping and, for text
// formats that need it, UTF-8 sanitization.
//
// The order matters:
// 1. Counting sits closest to the file so it sees raw bytes
// 2. The BOM is stripped before any parsing
// 3. Sanitization runs last
func wrapSource(r io.Reader, sanitize bool) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r)
	out := skipBOM(counter)
	if sanitize {
		out = NewUTF8Sanitizer(out)
	}
	return out, counter
}
