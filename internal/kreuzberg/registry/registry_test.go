package registry

import "testing"

type fakePlugin struct {
	name     string
	mimes    []string
	priority int
	initErr  error
	shutdown int
}

func (f *fakePlugin) Name() string                  { return f.name }
func (f *fakePlugin) Initialize() error             { return f.initErr }
func (f *fakePlugin) Shutdown() error                { f.shutdown++; return nil }
func (f *fakePlugin) SupportedMIMETypes() []string   { return f.mimes }
func (f *fakePlugin) Priority() int                  { return f.priority }

func TestWildcardPrecedence(t *testing.T) {
	r := New()
	e1 := &fakePlugin{name: "E1", mimes: []string{"image/*"}, priority: 100}
	e2 := &fakePlugin{name: "E2", mimes: []string{"image/png"}, priority: 50}

	if err := r.Register(e1); err != nil {
		t.Fatalf("register E1: %v", err)
	}
	if err := r.Register(e2); err != nil {
		t.Fatalf("register E2: %v", err)
	}

	got, err := r.Get("image/png")
	if err != nil || got.Name() != "E2" {
		t.Errorf("Get(image/png) = %v, %v, want E2", got, err)
	}
	got, err = r.Get("image/jpeg")
	if err != nil || got.Name() != "E1" {
		t.Errorf("Get(image/jpeg) = %v, %v, want E1", got, err)
	}

	if err := r.Remove("E1"); err != nil {
		t.Fatalf("remove E1: %v", err)
	}
	if _, err := r.Get("image/jpeg"); err == nil {
		t.Error("expected UnsupportedFormat after removing sole wildcard match")
	}
	if e1.shutdown != 1 {
		t.Errorf("E1 shutdown called %d times, want 1", e1.shutdown)
	}
}

func TestRegisterRejectsBadName(t *testing.T) {
	r := New()
	p := &fakePlugin{name: "bad name!", mimes: []string{"text/plain"}}
	if err := r.Register(p); err == nil {
		t.Error("expected validation error for invalid plugin name")
	}
}

func TestRegisterPropagatesInitError(t *testing.T) {
	r := New()
	p := &fakePlugin{name: "broken", mimes: []string{"text/plain"}, initErr: errBoom}
	if err := r.Register(p); err == nil {
		t.Error("expected error propagated from failed Initialize")
	}
	if _, err := r.Get("text/plain"); err == nil {
		t.Error("plugin must not be inserted when Initialize fails")
	}
}

type boomErr struct{}

func (boomErr) Error() string { return "boom" }

var errBoom = boomErr{}

func TestShutdownAllRunsEveryHook(t *testing.T) {
	r := New()
	a := &fakePlugin{name: "a", mimes: []string{"a/*"}}
	b := &fakePlugin{name: "b", mimes: []string{"b/*"}}
	r.Register(a)
	r.Register(b)
	if err := r.ShutdownAll(); err != nil {
		t.Fatalf("ShutdownAll: %v", err)
	}
	if a.shutdown != 1 || b.shutdown != 1 {
		t.Errorf("expected both shutdown hooks to run exactly once, got a=%d b=%d", a.shutdown, b.shutdown)
	}
}
