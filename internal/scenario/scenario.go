// Package scenario composes page objects into the end-to-end checks the
// CLI runs against a live storefront. Each step is timed, logged and
// metered; the first failing step ends the scenario.
package scenario

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/components"
	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/metrics"
	"github.com/themizzi/shopcheck/internal/models"
	"github.com/themizzi/shopcheck/internal/pages"
)

// Scenario errors
var (
	ErrNoCredentials    = errors.New("login email and password are required")
	ErrInvalidItemCount = errors.New("number of items to add must be positive")
	ErrSearchMissing    = errors.New("search input not visible")
)

// Credentials is an account the smoke scenario logs in with.
type Credentials struct {
	Email    string
	Password string
}

// Runner runs scenarios on one page.
type Runner struct {
	page    browser.Page
	site    *config.SiteConfig
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewRunner creates a runner. logger and m may be nil.
func NewRunner(page browser.Page, site *config.SiteConfig, logger *zap.Logger, m *metrics.Metrics) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{page: page, site: site, log: logger.Named("scenario"), metrics: m}
}

func (r *Runner) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	r.metrics.ObserveStep(name, elapsed, err)
	if err != nil {
		r.log.Error("step failed", zap.String("step", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	r.log.Info("step passed", zap.String("step", name), zap.Duration("elapsed", elapsed))
	return nil
}

// acceptConsent dismisses the consent overlay if the current page shows one.
func (r *Runner) acceptConsent() error {
	return r.step("accept consent", func() error {
		accepted, err := components.NewConsentPopup(r.page).Accept(r.site.Timeout)
		if err != nil {
			return err
		}
		r.metrics.ObserveConsent(accepted)
		return nil
	})
}

// Smoke logs in and out again, checking the menu state on each side.
func (r *Runner) Smoke(creds Credentials) error {
	if creds.Email == "" || creds.Password == "" {
		return ErrNoCredentials
	}

	login := pages.NewLoginPage(r.page, r.site)
	if err := r.step("load login", login.Load); err != nil {
		return err
	}
	r.metrics.ObserveConsent(login.ConsentAccepted())

	if err := r.step("check logged out", login.AssertLoggedOut); err != nil {
		return err
	}
	if err := r.step("login", func() error { return login.Login(creds.Email, creds.Password) }); err != nil {
		return err
	}
	if err := r.step("logout", login.Logout); err != nil {
		return err
	}
	return r.step("check logged out after logout", login.AssertLoggedOut)
}

// AuditCart adds the first count listed products to the cart by hovering
// their cards, then audits every cart line. Line mismatches are reported
// on the audit, not as an error.
func (r *Runner) AuditCart(count int) (*models.CartAudit, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidItemCount, count)
	}

	features := pages.NewFeaturesItems(r.page, r.site)
	if err := r.step("load products", features.Load); err != nil {
		return nil, err
	}
	if err := r.acceptConsent(); err != nil {
		return nil, err
	}

	listed, err := features.Count()
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if count > listed {
		return nil, fmt.Errorf("%w: %d requested but only %d listed", ErrInvalidItemCount, count, listed)
	}

	for i := 0; i < count; i++ {
		index := i
		if err := r.step("add to cart", func() error { return features.AddToCartByHover(index, true) }); err != nil {
			return nil, err
		}
	}
	return r.AuditCurrentCart()
}

// AuditCurrentCart opens the cart as it stands and audits every line.
func (r *Runner) AuditCurrentCart() (*models.CartAudit, error) {
	cart := pages.NewCartPage(r.page, r.site)
	if err := r.step("load cart", cart.Load); err != nil {
		return nil, err
	}
	var snapshot models.Cart
	if err := r.step("snapshot cart", func() error {
		var err error
		snapshot, err = cart.Snapshot()
		return err
	}); err != nil {
		return nil, err
	}

	audit, err := models.NewCartAudit(r.site.Address, snapshot)
	if err != nil {
		return nil, err
	}
	r.metrics.AddMismatches(len(audit.Mismatches))
	r.log.Info("cart audited",
		zap.String("audit_id", audit.ID),
		zap.Int("lines", audit.Lines),
		zap.Int("value", audit.Value),
		zap.Ints("mismatched_ids", audit.MismatchIDs()),
	)
	return audit, nil
}

// DeleteAccount signs up a throwaway account under domain, deletes it and
// checks the session ends logged out.
func (r *Runner) DeleteAccount(domain string) (models.SignupIdentity, error) {
	identity := models.NewSignupIdentity(domain)
	r.log.Debug("signing up", zap.String("email", identity.Email))

	login := pages.NewLoginPage(r.page, r.site)
	if err := r.step("load login", login.Load); err != nil {
		return identity, err
	}
	r.metrics.ObserveConsent(login.ConsentAccepted())

	if err := r.step("signup", func() error { return login.Signup(identity.Name, identity.Email) }); err != nil {
		return identity, err
	}
	if err := r.step("check logged in", login.AssertLoggedIn); err != nil {
		return identity, err
	}

	deletion := pages.NewDeleteAccountPage(r.page, r.site)
	if err := r.step("delete account", func() error { return deletion.DeleteAccountAndContinue(true) }); err != nil {
		return identity, err
	}
	return identity, r.step("check logged out", login.AssertLoggedOut)
}

// Wiki loads the reference wiki's main page and returns its title once the
// search box is confirmed visible.
func (r *Runner) Wiki(url string) (string, error) {
	main := pages.NewMainPage(r.page, url)
	if err := r.step("load wiki", main.Load); err != nil {
		return "", err
	}

	var title string
	err := r.step("check wiki", func() error {
		visible, err := main.SearchInputVisible()
		if err != nil {
			return err
		}
		if !visible {
			return ErrSearchMissing
		}
		title, err = main.Title()
		return err
	})
	return title, err
}
