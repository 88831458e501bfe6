package pqkd

// Pending is the result of a call running on its own goroutine.
type Pending[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func completed[T any](value T, err error) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{}), value: value, err: err}
	close(p.done)
	return p
}

func goPending[T any](fn func() (T, error)) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.value, p.err = fn()
	}()
	return p
}

// Done is closed once the call has completed or failed.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the call completes and returns its result. It may be called
// any number of times from any goroutine.
func (p *Pending[T]) Wait() (T, error) {
	<-p.done
	return p.value, p.err
}
