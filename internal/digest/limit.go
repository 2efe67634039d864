package digest

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// newLimiter caps throughput to bytesPerSec. The burst is 1 MB so
// natural chunk-sized reads pass without blocking; it never drops below
// one chunk or WaitN could not admit a full read.
func newLimiter(bytesPerSec int64) *rate.Limiter {
	burst := 1 << 20
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	if burst < chunkSize {
		burst = chunkSize
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// limitedReader wraps an io.Reader and enforces a rate limit.
type limitedReader struct {
	r       io.Reader
	limiter *rate.Limiter
	ctx     context.Context
}

func newLimitedReader(ctx context.Context, r io.Reader, limiter *rate.Limiter) *limitedReader {
	return &limitedReader{r: r, limiter: limiter, ctx: ctx}
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	n, err := lr.r.Read(p)
	if n > 0 {
		if waitErr := lr.limiter.WaitN(lr.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
