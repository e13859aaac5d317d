// Package scope provides scoped acquisition of binding handles with ordered
// release on all exit paths.
//
// Every public operation of the typed layer runs inside a Scope. Handles and
// arbitrary release functions registered during the operation are released
// in LIFO order when the operation returns, whether it returns normally,
// with an error, or by panicking.
package scope

import (
	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-h5typed/binding"
)

// Scope collects release actions for the duration of one operation.
// A Scope must not escape the Run call that created it.
type Scope struct {
	releases []func() error
	logger   logrus.FieldLogger
}

// Defer registers a release action. Actions run in reverse registration
// order when the scope ends.
func (s *Scope) Defer(release func() error) {
	s.releases = append(s.releases, release)
}

// Handle registers a binding handle for release via b.Close.
func (s *Scope) Handle(b binding.Binding, h binding.Handle) binding.Handle {
	s.Defer(func() error { return b.Close(h) })
	return h
}

// release runs all registered actions LIFO. Each action runs even if a
// previous one failed; the first failure is returned.
func (s *Scope) release() error {
	var first error
	for i := len(s.releases) - 1; i >= 0; i-- {
		if err := s.releases[i](); err != nil {
			if s.logger != nil {
				s.logger.WithError(err).Warn("handle release failed")
			}
			if first == nil {
				first = err
			}
		}
	}
	s.releases = nil
	return first
}

// Run executes fn under a fresh scope. Registered releases run exactly once
// on every exit path. A release error is surfaced only when fn itself
// succeeded; a panic in fn is re-raised after cleanup.
func Run(fn func(*Scope) error) error {
	return RunLogged(nil, fn)
}

// RunLogged is Run with a logger for release failures. A nil logger
// disables logging.
func RunLogged(logger logrus.FieldLogger, fn func(*Scope) error) (err error) {
	s := &Scope{logger: logger}
	defer func() {
		releaseErr := s.release()
		if err == nil {
			err = releaseErr
		}
	}()
	return fn(s)
}
