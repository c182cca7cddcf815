// Package context wraps the standard context.Context with a structured
// logger, so call sites can carry a logrus.Entry alongside cancellation
// without threading a separate logger argument through every function.
package context

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Context is a context.Context with an attached structured logger.
type Context struct {
	ctx context.Context
	Log *logrus.Entry
}

func (c *Context) Deadline() (deadline time.Time, ok bool) {
	return c.ctx.Deadline()
}

func (c *Context) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *Context) Err() error {
	return c.ctx.Err()
}

func (c *Context) Value(key any) any {
	return c.ctx.Value(key)
}

func Background() *Context {
	return &Context{
		ctx: context.Background(),
		Log: logrus.NewEntry(logrus.New()),
	}
}

func New(ctx context.Context, log *logrus.Entry) *Context {
	return &Context{
		ctx: ctx,
		Log: log,
	}
}

func WithCancel(parent *Context) (*Context, context.CancelFunc) {
	c, cancel := context.WithCancel(parent.ctx)
	return &Context{ctx: c, Log: parent.Log}, cancel
}

func WithTimeout(parent *Context, timeout time.Duration) (*Context, context.CancelFunc) {
	c, cancel := context.WithTimeout(parent.ctx, timeout)
	return &Context{ctx: c, Log: parent.Log}, cancel
}

func WithLogField(parent *Context, key string, val interface{}) *Context {
	return &Context{
		ctx: parent,
		Log: parent.Log.WithField(key, val),
	}
}

// ErrGroup returns an errgroup.Group bound to a child of parent that is
// cancelled as soon as one goroutine returns a non-nil error, along with
// the child Context to hand to each goroutine.
func ErrGroup(parent *Context) (*errgroup.Group, *Context) {
	group, goctx := errgroup.WithContext(parent)
	return group, &Context{ctx: goctx, Log: parent.Log}
}
