package ingest

import (
	"errors"
	"io"
)

// DefaultMaxPartBytes is the per-part size ceiling.
const DefaultMaxPartBytes int64 = 5 << 20

// ErrSizeLimitExceeded is returned by Guard once the ceiling is crossed.
var ErrSizeLimitExceeded = errors.New("ingest: part exceeds size limit")

// Guard counts bytes read through it and fails as soon as the total
// exceeds its limit. It never buffers.
type Guard struct {
	r     io.Reader
	limit int64
	n     int64
	err   error
}

// NewGuard wraps r with a ceiling of limit bytes.
func NewGuard(r io.Reader, limit int64) *Guard {
	return &Guard{r: r, limit: limit}
}

// Read implements io.Reader.
func (g *Guard) Read(p []byte) (int, error) {
	if g.err != nil {
		return 0, g.err
	}

	// Ask for at most one byte past the limit so an oversized
	// payload is detected without reading further.
	if room := g.limit - g.n + 1; int64(len(p)) > room {
		p = p[:room]
	}

	n, err := g.r.Read(p)
	g.n += int64(n)
	if g.n > g.limit {
		n -= int(g.n - g.limit)
		g.n = g.limit
		g.err = ErrSizeLimitExceeded
		return n, g.err
	}
	return n, err
}

// N returns the number of bytes accepted so far.
func (g *Guard) N() int64 {
	return g.n
}

// Exceeded reports whether the ceiling was crossed.
func (g *Guard) Exceeded() bool {
	return errors.Is(g.err, ErrSizeLimitExceeded)
}
