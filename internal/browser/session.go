package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/config"
)

// Session owns a Playwright driver, one browser and one isolated context.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	config  *config.BrowserConfig
	timeout time.Duration
	log     *zap.Logger
}

// Launch starts Playwright and the configured browser engine.
// Browsers must already be installed, e.g. via
// go run github.com/playwright-community/playwright-go/cmd/playwright install chromium
func Launch(cfg *config.BrowserConfig, defaultTimeout time.Duration, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	engine, err := browserType(pw, cfg.Engine)
	if err != nil {
		pw.Stop()
		return nil, err
	}

	options := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if cfg.SlowMo > 0 {
		options.SlowMo = playwright.Float(float64(cfg.SlowMo.Milliseconds()))
	}
	b, err := engine.Launch(options)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch %s: %w", cfg.Engine, err)
	}

	ctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1280, Height: 720},
	})
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	logger.Info("browser launched",
		zap.String("engine", cfg.Engine),
		zap.Bool("headless", cfg.Headless),
		zap.Duration("slow_mo", cfg.SlowMo),
	)

	return &Session{
		pw:      pw,
		browser: b,
		context: ctx,
		config:  cfg,
		timeout: defaultTimeout,
		log:     logger,
	}, nil
}

func browserType(pw *playwright.Playwright, engine string) (playwright.BrowserType, error) {
	switch engine {
	case config.BrowserChromium, "":
		return pw.Chromium, nil
	case config.BrowserFirefox:
		return pw.Firefox, nil
	case config.BrowserWebKit:
		return pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unsupported browser engine %q", engine)
	}
}

// NewPage opens a tab in the session context with the default action timeout applied.
func (s *Session) NewPage() (Page, playwright.Page, error) {
	page, err := s.context.NewPage()
	if err != nil {
		return nil, nil, fmt.Errorf("could not create page: %w", err)
	}
	if s.timeout > 0 {
		page.SetDefaultTimeout(float64(s.timeout.Milliseconds()))
	}
	return WrapPage(page), page, nil
}

// ClearCookies drops every cookie of the session context so the next page
// starts logged out with an empty cart.
func (s *Session) ClearCookies() error {
	if err := s.context.ClearCookies(); err != nil {
		return fmt.Errorf("could not clear cookies: %w", err)
	}
	return nil
}

// Screenshot stores a full-page screenshot named after name in the configured directory.
// It returns "" when no directory is configured.
func (s *Session) Screenshot(page playwright.Page, name string) (string, error) {
	if s.config.ScreenshotDir == "" || page == nil {
		return "", nil
	}
	if err := os.MkdirAll(s.config.ScreenshotDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create screenshot dir: %w", err)
	}
	safe := strings.NewReplacer("/", "_", " ", "_").Replace(name)
	path := filepath.Join(s.config.ScreenshotDir, fmt.Sprintf("%s_%d.png", safe, time.Now().Unix()))
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return "", fmt.Errorf("could not take screenshot: %w", err)
	}
	s.log.Info("screenshot saved", zap.String("path", path))
	return path, nil
}

// Close tears down context, browser and driver, in that order.
func (s *Session) Close() error {
	var errs []error
	if s.context != nil {
		errs = append(errs, s.context.Close())
	}
	if s.browser != nil {
		errs = append(errs, s.browser.Close())
	}
	if s.pw != nil {
		errs = append(errs, s.pw.Stop())
	}
	s.log.Debug("browser session closed")
	return errors.Join(errs...)
}
