package listener

import (
	"bytes"
	"io"
)

// lineEndings normalizes client line endings to \n on read and expands \n
// to \r\n on write. Telnet clients send \r\n, SSH with a PTY sends \r.
type lineEndings struct {
	rw io.ReadWriter
	// lastCR is set when the previous read ended in \r, so a leading \n
	// on the next read belongs to the same line ending.
	lastCR bool
}

func newCRLFReadWriter(rw io.ReadWriter) io.ReadWriter {
	return &lineEndings{rw: rw}
}

func (l *lineEndings) Read(p []byte) (int, error) {
	for {
		n, err := l.rw.Read(p)
		if n == 0 {
			return 0, err
		}

		data := p[:n]
		if l.lastCR && data[0] == '\n' {
			data = data[1:]
		}
		l.lastCR = len(data) > 0 && data[len(data)-1] == '\r'

		data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
		data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
		n = copy(p, data)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

func (l *lineEndings) Write(p []byte) (int, error) {
	_, err := l.rw.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n")))
	if err != nil {
		return 0, err
	}
	return len(p), nil
}
