package pages

import (
	"fmt"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/components"
	"github.com/themizzi/shopcheck/internal/config"
)

// Account deletion selectors
const (
	AccountDeletedSelector = `h2[data-qa="account-deleted"]`
	ContinueButtonSelector = `a[data-qa="continue-button"]`
)

// AccountDeletedText is the confirmation header's exact text.
const AccountDeletedText = "Account Deleted!"

// DeleteAccountPage drives account deletion from the header menu.
type DeleteAccountPage struct {
	page browser.Page
	site *config.SiteConfig
	nav  *components.NavMenu
}

// NewDeleteAccountPage creates the delete account page object.
func NewDeleteAccountPage(page browser.Page, site *config.SiteConfig) *DeleteAccountPage {
	return &DeleteAccountPage{page: page, site: site, nav: components.NewNavMenu(page)}
}

// DeleteAccountAndContinue deletes the logged-in account and checks the
// confirmation. With clickContinue it follows Continue back to the home page.
func (p *DeleteAccountPage) DeleteAccountAndContinue(clickContinue bool) error {
	if err := p.nav.Click(components.NavDeleteAccount); err != nil {
		return err
	}
	if err := p.page.WaitForURL(p.site.URL("/delete_account"), p.site.Timeout); err != nil {
		return fmt.Errorf("delete account page not reached: %w", err)
	}

	header := p.page.Locator(AccountDeletedSelector)
	if err := header.WaitFor(browser.StateVisible, p.site.Timeout); err != nil {
		return fmt.Errorf("account deleted header not visible: %w", err)
	}
	if err := header.WaitForText(AccountDeletedText, p.site.Timeout); err != nil {
		return fmt.Errorf("account deleted header: %w", err)
	}

	if !clickContinue {
		return nil
	}
	if err := p.page.Locator(ContinueButtonSelector).Click(); err != nil {
		return fmt.Errorf("click continue: %w", err)
	}
	if err := p.page.WaitForURL(p.site.URL("/"), p.site.Timeout); err != nil {
		return fmt.Errorf("not redirected home after account deletion: %w", err)
	}
	return nil
}
