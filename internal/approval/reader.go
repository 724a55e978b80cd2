package approval

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/mailsift/mailsift/internal/common"
)

// nonBlockingReader provides context-aware input reading that can be
// interrupted.
type nonBlockingReader struct {
	reader      *bufio.Reader
	readingLock sync.Mutex
}

func newNonBlockingReader(reader io.Reader) *nonBlockingReader {
	if reader == nil {
		panic("reader cannot be nil")
	}
	return &nonBlockingReader{
		reader: bufio.NewReader(reader),
	}
}

// ReadLine reads one line, respecting context cancellation. A cancelled read
// returns common.ErrInputCancelled; the underlying goroutine finishes on its
// own.
func (r *nonBlockingReader) ReadLine(ctx context.Context) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.readingLock.Lock()
		defer r.readingLock.Unlock()

		value, err := r.reader.ReadString('\n')
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", common.ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil && res.value == "" {
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}
