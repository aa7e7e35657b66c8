package probe

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/JSH-Team/domprobe/internal/browser"

	"github.com/ysmood/gson"
)

// fakeProcess answers the DOM queries from a fixed description of the page
// instead of a real document.
type fakeProcess struct {
	mu      sync.Mutex
	present map[string]bool
	sheets  []map[string]string
	navErr  error
	pages   int
}

func (p *fakeProcess) NewPage(context.Context) (browser.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages++
	return &fakePage{proc: p}, nil
}

func (p *fakeProcess) Close() error { return nil }

type fakePage struct {
	proc *fakeProcess
}

func (p *fakePage) Navigate(context.Context, string) error { return p.proc.navErr }

func (p *fakePage) SetContent(context.Context, string) error { return nil }

func (p *fakePage) Eval(_ context.Context, js string, args ...interface{}) (gson.JSON, error) {
	if strings.Contains(js, "noscript") {
		candidates, _ := args[0].([]string)
		kept := []string{}
		for _, c := range candidates {
			if p.proc.present[c] {
				kept = append(kept, c)
			}
		}
		return encode(map[string]interface{}{"selectors": kept}), nil
	}

	sheets := p.proc.sheets
	if sheets == nil {
		sheets = []map[string]string{}
	}
	return encode(sheets), nil
}

func (p *fakePage) Close() error { return nil }

func encode(v interface{}) gson.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return gson.NewFrom(string(b))
}
