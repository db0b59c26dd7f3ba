package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"
)

// CopyBidirectional copies bytes between left and right in both directions
// until either direction reaches EOF or fails.  Both connections are
// closed before it returns, on every exit path.
//
// The pair is torn down as soon as the first direction finishes: closing
// both connections unblocks the other copy, which then fails with
// net.ErrClosed.  That error is the normal shutdown path and is not
// reported.
func CopyBidirectional(ctx context.Context, left, right net.Conn) error {
	g, gctx := errgroup.WithContext(ctx)

	var closeOnce sync.Once
	closeBoth := func() {
		closeOnce.Do(func() {
			_ = left.Close()
			_ = right.Close()
		})
	}
	defer closeBoth()

	copyHalf := func(dst, src net.Conn) error {
		_, err := io.Copy(dst, src)
		closeBoth()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	}

	g.Go(func() error { return copyHalf(left, right) })
	g.Go(func() error { return copyHalf(right, left) })

	// If the context is canceled, close both sides to unblock Copy.
	stop := context.AfterFunc(gctx, closeBoth)
	defer stop()

	return g.Wait()
}
