package pool

import (
	"context"
	"errors"
	"sync"

	"github.com/JSH-Team/domprobe/internal/browser"

	"github.com/ysmood/gson"
)

type fakeLauncher struct {
	mu       sync.Mutex
	opts     []browser.LaunchOptions
	failAt   map[int]bool
	launched []*fakeProcess
	calls    int
}

func (l *fakeLauncher) Launch(_ context.Context, opts browser.LaunchOptions) (browser.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	call := l.calls
	l.calls++
	l.opts = append(l.opts, opts)
	if l.failAt[call] {
		return nil, errors.New("spawn failed")
	}
	proc := &fakeProcess{}
	l.launched = append(l.launched, proc)
	return proc, nil
}

type fakeProcess struct {
	mu      sync.Mutex
	closed  bool
	pages   []*fakePage
	pageErr error
	evalFn  func(js string, args ...interface{}) (gson.JSON, error)
	navErr  error
}

func (p *fakeProcess) NewPage(context.Context) (browser.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pageErr != nil {
		return nil, p.pageErr
	}
	page := &fakePage{evalFn: p.evalFn, navErr: p.navErr}
	p.pages = append(p.pages, page)
	return page, nil
}

func (p *fakeProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakeProcess) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type fakePage struct {
	mu      sync.Mutex
	url     string
	content string
	closed  bool
	navErr  error
	evalFn  func(js string, args ...interface{}) (gson.JSON, error)
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.navErr != nil {
		return p.navErr
	}
	p.url = url
	return nil
}

func (p *fakePage) SetContent(_ context.Context, markup string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.content = markup
	return nil
}

func (p *fakePage) Eval(_ context.Context, js string, args ...interface{}) (gson.JSON, error) {
	if p.evalFn != nil {
		return p.evalFn(js, args...)
	}
	return gson.New(true), nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePage) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func processes(n int) []browser.Process {
	procs := make([]browser.Process, n)
	for i := range procs {
		procs[i] = &fakeProcess{}
	}
	return procs
}
