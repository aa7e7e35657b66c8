package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/JSH-Team/domprobe/internal/utils/logger"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// RodLauncher launches Chromium through go-rod.
type RodLauncher struct {
	// Bin is the browser binary. Empty lets rod find or download one.
	Bin       string
	NoSandbox bool
	Headless  bool
}

// NewRodLauncher returns a headless launcher.
func NewRodLauncher(bin string, noSandbox bool) *RodLauncher {
	return &RodLauncher{
		Bin:       bin,
		NoSandbox: noSandbox,
		Headless:  true,
	}
}

// LookPath reports the locally installed browser rod would use, if any.
func LookPath() (string, bool) {
	return launcher.LookPath()
}

// Launch starts a browser process and connects to it.
func (l *RodLauncher) Launch(ctx context.Context, opts LaunchOptions) (Process, error) {
	lnch := launcher.New().
		Context(ctx).
		Headless(l.Headless).
		NoSandbox(l.NoSandbox).
		Set("disable-extensions").
		Set("disable-default-apps").
		Set("disable-dev-shm-usage").
		Set("disable-gpu")

	if l.Bin != "" {
		lnch = lnch.Bin(l.Bin)
	}

	if opts.IgnoreTLSErrors {
		lnch = lnch.Set("ignore-certificate-errors")
	}
	if minVersion := sslVersionMin(opts.TLSProtocol); minVersion != "" {
		lnch = lnch.Set("ssl-version-min", minVersion)
	}

	controlURL, err := lnch.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	// The launcher context only bounds startup; the browser outlives it.
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		lnch.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	if opts.IgnoreTLSErrors {
		if err := b.IgnoreCertErrors(true); err != nil {
			_ = b.Close()
			lnch.Kill()
			return nil, fmt.Errorf("failed to disable certificate checks: %w", err)
		}
	}

	logger.Debug("Browser process started (pid %d)", lnch.PID())

	return &rodProcess{
		launcher: lnch,
		browser:  b,
	}, nil
}

// sslVersionMin maps a protocol setting onto Chromium's ssl-version-min flag.
func sslVersionMin(protocol string) string {
	switch protocol {
	case "":
		return ""
	case TLSProtocolAny:
		return "tls1"
	default:
		return protocol
	}
}

type rodProcess struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func (p *rodProcess) NewPage(ctx context.Context) (Page, error) {
	page, err := p.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	// Detach the page from the creation context so later calls pick their own.
	return &rodPage{page: page.Context(context.Background())}, nil
}

func (p *rodProcess) Close() error {
	err := p.browser.Close()
	p.launcher.Kill()
	p.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

func (p *rodPage) SetContent(ctx context.Context, markup string) error {
	return p.page.Context(ctx).SetDocumentContent(markup)
}

func (p *rodPage) Eval(ctx context.Context, js string, args ...interface{}) (gson.JSON, error) {
	res, err := p.page.Context(ctx).Evaluate(rod.Eval(js, args...))
	if err != nil {
		var evalErr *rod.EvalError
		if errors.As(err, &evalErr) {
			return gson.JSON{}, &ScriptError{Err: err}
		}
		return gson.JSON{}, err
	}
	if res == nil {
		return gson.JSON{}, nil
	}
	return res.Value, nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

// ScriptError is an exception thrown by the evaluated script itself, as
// opposed to a failure talking to the browser.
type ScriptError struct {
	Err error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script threw: %v", e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
