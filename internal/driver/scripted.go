package driver

import (
	"context"
	"errors"
	"sync"
)

// Scripted is a deterministic in-memory Session for tests. Every hook
// is optional; unset hooks return benign zero values so tests only
// script the calls they care about.
type Scripted struct {
	NavigateFunc func(url string) error
	EvalFunc     func(js string) (string, error)
	ClickFunc    func(selector string) error
	CountFunc    func(selector string) (int, error)
	URLFunc      func() (string, error)
	SourceFunc   func() (string, error)
	CloseFunc    func() error
}

func (s *Scripted) Navigate(_ context.Context, url string) error {
	if s.NavigateFunc != nil {
		return s.NavigateFunc(url)
	}
	return nil
}

func (s *Scripted) Eval(_ context.Context, js string) (string, error) {
	if s.EvalFunc != nil {
		return s.EvalFunc(js)
	}
	return "null", nil
}

func (s *Scripted) Click(_ context.Context, selector string) error {
	if s.ClickFunc != nil {
		return s.ClickFunc(selector)
	}
	return nil
}

func (s *Scripted) Count(_ context.Context, selector string) (int, error) {
	if s.CountFunc != nil {
		return s.CountFunc(selector)
	}
	return 0, nil
}

func (s *Scripted) CurrentURL(_ context.Context) (string, error) {
	if s.URLFunc != nil {
		return s.URLFunc()
	}
	return "", nil
}

func (s *Scripted) PageSource(_ context.Context) (string, error) {
	if s.SourceFunc != nil {
		return s.SourceFunc()
	}
	return "", nil
}

func (s *Scripted) Close() error {
	if s.CloseFunc != nil {
		return s.CloseFunc()
	}
	return nil
}

// ScriptedFactory hands out sessions from a fixed queue, one per
// worker. Running out of sessions is a test setup bug.
type ScriptedFactory struct {
	Sessions []Session
	mu       sync.Mutex
	next     int
}

func (f *ScriptedFactory) NewSession(_ context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next >= len(f.Sessions) {
		return nil, errors.New("scripted factory exhausted")
	}
	s := f.Sessions[f.next]
	f.next++
	return s, nil
}

func (f *ScriptedFactory) Close() error { return nil }
