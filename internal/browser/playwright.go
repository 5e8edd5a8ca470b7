package browser

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"
)

// WrapPage adapts a playwright page to Page.
func WrapPage(page playwright.Page) Page {
	return &pwPage{page: page}
}

// WrapLocator adapts a playwright locator to Locator.
func WrapLocator(locator playwright.Locator) Locator {
	return &pwLocator{locator: locator}
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) Goto(url string) error {
	_, err := p.page.Goto(url)
	return translate(err)
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) Title() (string, error) {
	title, err := p.page.Title()
	return title, translate(err)
}

func (p *pwPage) Locator(selector string) Locator {
	return &pwLocator{locator: p.page.Locator(selector)}
}

func (p *pwPage) WaitForURL(url string, timeout time.Duration) error {
	// A plain string would be matched as a glob, so pin the exact URL.
	exact := regexp.MustCompile("^" + regexp.QuoteMeta(url) + "$")
	return translate(p.page.WaitForURL(exact, playwright.PageWaitForURLOptions{
		Timeout: milliseconds(timeout),
	}))
}

func (p *pwPage) WaitForNetworkIdle(timeout time.Duration) error {
	return translate(p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: milliseconds(timeout),
	}))
}

type pwLocator struct {
	locator playwright.Locator
}

func (l *pwLocator) Locator(selector string) Locator {
	return &pwLocator{locator: l.locator.Locator(selector)}
}

func (l *pwLocator) Nth(index int) Locator {
	return &pwLocator{locator: l.locator.Nth(index)}
}

func (l *pwLocator) First() Locator {
	return &pwLocator{locator: l.locator.First()}
}

func (l *pwLocator) All() ([]Locator, error) {
	all, err := l.locator.All()
	if err != nil {
		return nil, translate(err)
	}
	out := make([]Locator, 0, len(all))
	for _, item := range all {
		out = append(out, &pwLocator{locator: item})
	}
	return out, nil
}

func (l *pwLocator) Count() (int, error) {
	count, err := l.locator.Count()
	return count, translate(err)
}

func (l *pwLocator) InnerText() (string, error) {
	text, err := l.locator.InnerText()
	return text, translate(err)
}

func (l *pwLocator) GetAttribute(name string) (string, error) {
	value, err := l.locator.GetAttribute(name)
	return value, translate(err)
}

func (l *pwLocator) InputValue() (string, error) {
	value, err := l.locator.InputValue()
	return value, translate(err)
}

func (l *pwLocator) IsVisible() (bool, error) {
	visible, err := l.locator.IsVisible()
	return visible, translate(err)
}

func (l *pwLocator) Click() error {
	return translate(l.locator.Click())
}

func (l *pwLocator) Hover() error {
	return translate(l.locator.Hover())
}

func (l *pwLocator) Fill(value string) error {
	return translate(l.locator.Fill(value))
}

func (l *pwLocator) Clear() error {
	return translate(l.locator.Clear())
}

func (l *pwLocator) PressSequentially(text string) error {
	return translate(l.locator.PressSequentially(text))
}

func (l *pwLocator) WaitFor(state State, timeout time.Duration) error {
	pwState, err := selectorState(state)
	if err != nil {
		return err
	}
	return translate(l.locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   pwState,
		Timeout: milliseconds(timeout),
	}))
}

func (l *pwLocator) WaitForText(text string, timeout time.Duration) error {
	assertions := playwright.NewPlaywrightAssertions()
	err := assertions.Locator(l.locator).ToHaveText(text, playwright.LocatorAssertionsToHaveTextOptions{
		Timeout: milliseconds(timeout),
	})
	if err != nil {
		// Assertion failures are only reported once the timeout expired.
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return nil
}

func selectorState(state State) (*playwright.WaitForSelectorState, error) {
	switch state {
	case StateVisible:
		return playwright.WaitForSelectorStateVisible, nil
	case StateHidden:
		return playwright.WaitForSelectorStateHidden, nil
	case StateAttached:
		return playwright.WaitForSelectorStateAttached, nil
	case StateDetached:
		return playwright.WaitForSelectorStateDetached, nil
	default:
		return nil, fmt.Errorf("unknown element state %q", state)
	}
}

// milliseconds converts a timeout for playwright; zero keeps the page default.
func milliseconds(timeout time.Duration) *float64 {
	if timeout <= 0 {
		return nil
	}
	return playwright.Float(float64(timeout.Milliseconds()))
}

// translate maps playwright timeouts onto ErrTimeout.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
