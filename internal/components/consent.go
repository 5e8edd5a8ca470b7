package components

import (
	"fmt"
	"time"

	"github.com/themizzi/shopcheck/internal/browser"
)

// ConsentButtonSelector matches the accept button of the cookie consent overlay.
const ConsentButtonSelector = `button[class*="fc-primary-button"][aria-label="Consent"]`

// ConsentPopup dismisses the cookie consent overlay some sessions get.
type ConsentPopup struct {
	page   browser.Page
	button browser.Locator
}

// NewConsentPopup creates a consent popup handler for page.
func NewConsentPopup(page browser.Page) *ConsentPopup {
	return &ConsentPopup{page: page, button: page.Locator(ConsentButtonSelector)}
}

// Accept clicks the consent button if it shows up within timeout.
// It reports whether the overlay was present; absence is not an error.
func (c *ConsentPopup) Accept(timeout time.Duration) (bool, error) {
	if err := c.button.WaitFor(browser.StateVisible, timeout); err != nil {
		if browser.IsTimeout(err) {
			return false, nil
		}
		return false, fmt.Errorf("wait for consent button: %w", err)
	}
	if err := c.button.Click(); err != nil {
		return false, fmt.Errorf("click consent button: %w", err)
	}
	return true, nil
}
