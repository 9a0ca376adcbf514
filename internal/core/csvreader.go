package core

// csvreader.go cleans CSV input on the fly before it reaches encoding/csv:
//
//   - a leading UTF-8 byte order mark (written by Excel on Windows) is dropped
//   - bytes that are not valid UTF-8 are replaced with '?'
//
// Both work in constant memory so large imports are not buffered twice.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewImportReader wraps r with BOM removal and UTF-8 repair.
func NewImportReader(r io.Reader) io.Reader {
	return &utf8Repairer{src: skipBOM(r)}
}

// skipBOM returns a reader over r without a leading byte order mark.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(utf8BOM))
	if bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return br
}

// utf8Repairer replaces invalid UTF-8 with '?'. A multi-byte sequence cut
// by a read boundary is carried over to the next Read.
type utf8Repairer struct {
	src   io.Reader
	carry []byte // raw bytes of an incomplete sequence
	ready []byte // repaired bytes that did not fit the caller's buffer
	err   error  // source error held back until ready drains
}

func (u *utf8Repairer) Read(p []byte) (int, error) {
	if len(u.ready) > 0 {
		n := copy(p, u.ready)
		u.ready = u.ready[n:]
		if len(u.ready) > 0 {
			return n, nil
		}
		return n, u.err
	}
	if len(p) < utf8.UTFMax {
		buf := make([]byte, utf8.UTFMax)
		n, err := u.Read(buf)
		c := copy(p, buf[:n])
		if c < n {
			u.ready = buf[c:n]
			u.err = err
			return c, nil
		}
		return c, err
	}

	n := copy(p, u.carry)
	u.carry = u.carry[:0]
	m, err := u.src.Read(p[n:])
	n += m
	if n == 0 {
		return 0, err
	}

	end := n
	if err == nil {
		end -= partialTail(p[:n])
		u.carry = append(u.carry, p[end:n]...)
	}
	return repairUTF8(p[:end]), err
}

// repairUTF8 rewrites b in place and returns its new length.
func repairUTF8(b []byte) int {
	if utf8.Valid(b) {
		return len(b)
	}
	w := 0
	for r := 0; r < len(b); {
		c, size := utf8.DecodeRune(b[r:])
		if c == utf8.RuneError && size == 1 {
			b[w] = '?'
			w++
			r++
			continue
		}
		w += copy(b[w:], b[r:r+size])
		r += size
	}
	return w
}

// partialTail reports how many trailing bytes of b form the start of a
// multi-byte sequence that is still missing continuation bytes.
func partialTail(b []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(b); i++ {
		c := b[len(b)-i]
		if utf8.RuneStart(c) {
			if c >= utf8.RuneSelf && !utf8.FullRune(b[len(b)-i:]) {
				return i
			}
			return 0
		}
	}
	return 0
}
