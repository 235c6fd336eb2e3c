package upload

import (
	"context"
	"sync"

	"github.com/autumnsgrove/cdnup/internal/address"
	"github.com/autumnsgrove/cdnup/internal/model"
)

// flightGroup collapses concurrent store operations on the same content
// identity into one executed attempt with a shared result. It lives for one
// batch and carries no cross-batch state.
type flightGroup struct {
	mu    sync.Mutex
	calls map[address.Identity]*flightCall
}

type flightCall struct {
	done chan struct{}
	res  model.UploadResult
	err  error
}

func newFlightGroup() *flightGroup {
	return &flightGroup{calls: map[address.Identity]*flightCall{}}
}

// do runs fn once per identity. The first caller executes; later callers
// block on the leader's result and receive it flagged as a duplicate.
func (g *flightGroup) do(ctx context.Context, id address.Identity, fn func() (model.UploadResult, error)) (model.UploadResult, error) {
	g.mu.Lock()
	if c, ok := g.calls[id]; ok {
		g.mu.Unlock()
		select {
		case <-c.done:
		case <-ctx.Done():
			return model.UploadResult{}, ctx.Err()
		}
		if c.err != nil {
			return model.UploadResult{}, c.err
		}
		res := c.res
		res.Duplicate = true
		return res, nil
	}

	c := &flightCall{done: make(chan struct{})}
	g.calls[id] = c
	g.mu.Unlock()

	c.res, c.err = fn()
	close(c.done)
	return c.res, c.err
}
