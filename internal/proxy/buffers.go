package proxy

import (
	"bytes"
	"errors"
	"io"
)

// readAllLimit reads at most limit bytes and fails with ErrBodyTooLarge
// when more are available. A non-positive limit disables the check.
func readAllLimit(r io.Reader, limit int64) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	if limit <= 0 {
		return io.ReadAll(r)
	}
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, limit+1); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if int64(buf.Len()) > limit {
		return nil, ErrBodyTooLarge
	}
	return buf.Bytes(), nil
}
