// Package gogroup provides API to manage goroutines.
package gogroup

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

/* A GoGroup is a group of managed goroutines sharing one cancelable context.
 *
 * Routines launched through a group are protected from panic()s reaching the
 * go runtime; a panic is recovered, converted to a PanicError and handed to
 * the group's error callback. A routine that fails (error or panic) cancels
 * the whole group so that cooperating routines do not stall forever.
 */
type GoGroup interface {
	context.Context

	// Cancel this group. Try to get all the children to exit
	Cancel(error)

	// Has this group been canceled?
	Canceled() bool

	// Launch a function in a new goroutine, protected from panic()s. If it
	// panic()s or returns an error, cancel this group.
	Go(func(GoGroup) error)

	// Run a function in the current goroutine, but protected from panic()s
	// bubbling up beyond this point
	Run(func(GoGroup) error)

	// Wait for all group routines to exit. Return all errors they threw
	Wait() []error

	// Set a callback function to be run whenever an error is encountered
	ErrCallback(func(error))

	// Create a group which is a child context. Errors in this child do not
	// affect the parent, but canceling the parent cancels the child.
	Child(string) GoGroup

	Name() string
}

// An error converted from a recover()ed panic()
type PanicError struct {
	Msg   interface{}
	Stack string
}

func (pe PanicError) Error() string {
	if s, ok := pe.Msg.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", pe.Msg)
}

// Recover converts a recovered panic value into a PanicError carrying the
// current stack. Returns nil if p is nil.
func Recover(p interface{}) error {
	if p == nil {
		return nil
	}
	return PanicError{
		Msg:   p,
		Stack: string(debug.Stack()),
	}
}

// Create a new group. A nil context means context.Background()
func New(ctxt context.Context, name string) GoGroup {
	if ctxt == nil {
		ctxt = context.Background()
	}
	nctxt, cancel := context.WithCancel(ctxt)

	ret := &group{
		Context: nctxt,
		name:    name,
		cancel:  cancel,
	}
	ret.ErrCallback(nil)
	return ret
}

type group struct {
	context.Context
	sync.Mutex

	name   string
	cancel context.CancelFunc

	wg sync.WaitGroup

	errors      []error
	errCallback func(error)
}

func (g *group) Cancel(err error) {
	if err != nil {
		g.callback()(err)
	}
	g.cancel()
}

func (g *group) Canceled() bool {
	select {
	case <-g.Done():
		return true
	default:
		return false
	}
}

func (g *group) Go(f func(GoGroup) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.run(f)
	}()
}

func (g *group) Run(f func(GoGroup) error) {
	g.wg.Add(1)
	defer g.wg.Done()
	g.run(f)
}

func (g *group) Name() string {
	return g.name
}

func (g *group) run(f func(GoGroup) error) {
	defer g.catch()
	if err := f(g); err != nil {
		g.Cancel(err)
	}
}

// Use this in a defer to catch panic()s
func (g *group) catch() {
	if err := Recover(recover()); err != nil {
		g.Cancel(err)
	}
}

func (g *group) Wait() []error {
	g.wg.Wait()
	g.Lock()
	defer g.Unlock()
	ret := g.errors
	g.errors = nil
	return ret
}

func (g *group) Child(name string) GoGroup {
	if name == "" {
		name = "child"
	}
	ret := New(g, g.name+"-"+name).(*group)
	ret.errCallback = g.callback()
	return ret
}

// The default error handler
func (g *group) errorAppend(err error) {
	g.Lock()
	g.errors = append(g.errors, err)
	g.Unlock()
}

func (g *group) ErrCallback(f func(error)) {
	if f == nil {
		f = g.errorAppend
	}

	g.Lock()
	defer g.Unlock()
	g.errCallback = f
}

func (g *group) callback() func(error) {
	g.Lock()
	defer g.Unlock()
	return g.errCallback
}
