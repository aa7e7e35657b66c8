package browser

import (
	"context"

	"github.com/ysmood/gson"
)

// TLSProtocolAny asks for the lowest TLS version (ssl-version-min=tls1).
// Current Chromium ignores values below its own floor of TLS 1.2, so in
// practice "any" means whatever the browser build still accepts.
const TLSProtocolAny = "any"

// LaunchOptions configures one worker process.
type LaunchOptions struct {
	// IgnoreTLSErrors disables certificate validation inside the worker.
	IgnoreTLSErrors bool

	// TLSProtocol is either TLSProtocolAny or a Chromium ssl-version-min value
	// such as "tls1.2".
	TLSProtocol string
}

// Launcher spawns worker processes.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Process, error)
}

// Process is one running headless browser.
type Process interface {
	// NewPage opens a blank tab.
	NewPage(ctx context.Context) (Page, error)

	// Close asks the browser to exit and releases its resources.
	Close() error
}

// Page is a single tab inside a Process. A page serializes the operations
// issued against it, so callers never need to lock around it.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// SetContent replaces the document with markup.
	SetContent(ctx context.Context, markup string) error

	// Eval runs a JavaScript function expression with args and returns its
	// value marshalled by value. A nil JSON means the function returned
	// null or undefined.
	Eval(ctx context.Context, js string, args ...interface{}) (gson.JSON, error)

	Close() error
}
