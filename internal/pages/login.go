package pages

import (
	"fmt"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/components"
	"github.com/themizzi/shopcheck/internal/config"
)

// Login and signup form selectors
const (
	LoginEmailSelector    = `input[data-qa="login-email"]`
	LoginPasswordSelector = `input[data-qa="login-password"]`
	LoginButtonSelector   = `button[data-qa="login-button"]`
	SignupNameSelector    = `input[data-qa="signup-name"]`
	SignupEmailSelector   = `input[data-qa="signup-email"]`
	SignupButtonSelector  = `button[data-qa="signup-button"]`
)

// LoginPage drives the combined login and signup page.
type LoginPage struct {
	page    browser.Page
	site    *config.SiteConfig
	nav     *components.NavMenu
	consent *components.ConsentPopup

	consentAccepted bool
}

// NewLoginPage creates the login page object.
func NewLoginPage(page browser.Page, site *config.SiteConfig) *LoginPage {
	return &LoginPage{
		page:    page,
		site:    site,
		nav:     components.NewNavMenu(page),
		consent: components.NewConsentPopup(page),
	}
}

// URL returns the login page address.
func (p *LoginPage) URL() string {
	return p.site.URL("/login")
}

// Load opens the login page, accepts the consent overlay if it shows up and
// waits for the login form.
func (p *LoginPage) Load() error {
	if err := p.page.Goto(p.URL()); err != nil {
		return fmt.Errorf("load login page: %w", err)
	}
	accepted, err := p.consent.Accept(p.site.Timeout)
	if err != nil {
		return err
	}
	p.consentAccepted = accepted
	if err := p.page.Locator(LoginEmailSelector).WaitFor(browser.StateVisible, p.site.Timeout); err != nil {
		return fmt.Errorf("login form not visible: %w", err)
	}
	return nil
}

// ConsentAccepted reports whether the last Load dismissed a consent overlay.
func (p *LoginPage) ConsentAccepted() bool {
	return p.consentAccepted
}

// Login submits the login form and asserts the session is logged in.
func (p *LoginPage) Login(email, password string) error {
	if err := p.page.Locator(LoginEmailSelector).Fill(email); err != nil {
		return fmt.Errorf("fill login email: %w", err)
	}
	if err := p.page.Locator(LoginPasswordSelector).Fill(password); err != nil {
		return fmt.Errorf("fill login password: %w", err)
	}
	if err := p.page.Locator(LoginButtonSelector).Click(); err != nil {
		return fmt.Errorf("click login: %w", err)
	}
	return p.AssertLoggedIn()
}

// Signup submits the signup form. The outcome is left to the caller.
func (p *LoginPage) Signup(name, email string) error {
	if err := p.page.Locator(SignupNameSelector).Fill(name); err != nil {
		return fmt.Errorf("fill signup name: %w", err)
	}
	if err := p.page.Locator(SignupEmailSelector).Fill(email); err != nil {
		return fmt.Errorf("fill signup email: %w", err)
	}
	if err := p.page.Locator(SignupButtonSelector).Click(); err != nil {
		return fmt.Errorf("click signup: %w", err)
	}
	return nil
}

// AssertLoggedIn checks the menu shows a logged-in session on the home page.
func (p *LoginPage) AssertLoggedIn() error {
	if err := p.nav.AssertLoggedIn(p.site.Timeout); err != nil {
		return err
	}
	if err := p.page.WaitForURL(p.site.URL("/"), p.site.Timeout); err != nil {
		return fmt.Errorf("not redirected home after login: %w", err)
	}
	return nil
}

// AssertLoggedOut checks the menu offers Signup / Login.
func (p *LoginPage) AssertLoggedOut() error {
	return p.nav.AssertLoggedOut(p.site.Timeout)
}

// Logout clicks Logout and expects to land on the login page.
func (p *LoginPage) Logout() error {
	if err := p.nav.Click(components.NavLogout); err != nil {
		return err
	}
	if err := p.page.WaitForURL(p.URL(), p.site.Timeout); err != nil {
		return fmt.Errorf("not redirected to login after logout: %w", err)
	}
	return nil
}
