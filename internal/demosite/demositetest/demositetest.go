// Package demositetest drives the demo storefront in-process through the
// browsertest fixture driver, with hooks standing in for the storefront's
// page scripts.
package demositetest

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap/zaptest"

	"github.com/themizzi/shopcheck/internal/browser/browsertest"
	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/demosite"
)

// Address is the base URL fixture pages resolve against.
const Address = "http://demo.shopcheck.test"

// Demo account seeded into every fixture store.
const (
	DemoEmail    = "demo@shopcheck.test"
	DemoPassword = "demo-password"
	DemoName     = "Demo Shopper"
)

// Site bundles a fixture page with the store behind it.
type Site struct {
	Page   *browsertest.Page
	Store  *demosite.Store
	Config *config.SiteConfig
}

// Option adjusts the storefront before it starts.
type Option func(*config.ServerConfig)

// WithoutConsent disables the consent banner.
func WithoutConsent() Option {
	return func(c *config.ServerConfig) { c.ConsentPopup = false }
}

// New starts an in-process storefront and a page wired to it.
func New(t testing.TB, opts ...Option) *Site {
	t.Helper()

	cfg := config.ServerConfig{
		Port:         "0",
		ConsentPopup: true,
		DemoEmail:    DemoEmail,
		DemoPassword: DemoPassword,
		DemoName:     DemoName,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := demosite.NewStore(demosite.DefaultCatalog())
	server, err := demosite.NewServer(store, cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("failed to create demo storefront: %v", err)
	}

	return &Site{
		Page:   Scripted(browsertest.New(Address).WithHandler(server)),
		Store:  store,
		Config: &config.SiteConfig{Address: Address, WikiURL: config.DefaultWikiURL, Timeout: config.DefaultTimeout},
	}
}

// SessionID returns the storefront session the page carries, or "" before the first visit.
func (s *Site) SessionID() string {
	if c, ok := s.Page.Cookie(demosite.SessionCookie); ok {
		return c.Value
	}
	return ""
}

// Scripted installs hooks emulating the storefront's scripts on p.
func Scripted(p *browsertest.Page) *browsertest.Page {
	return p.
		OnClick(`button[class*="fc-primary-button"]`, acceptConsent).
		OnHover(".product-image-wrapper", showOverlay).
		OnClick(".add-to-cart", addFromListing).
		OnClick(".product-information button.cart", addFromDetails).
		OnClick("#cartModal .close-modal", closeModal).
		OnClick(".cart_quantity_delete", deleteCartRow)
}

func acceptConsent(p *browsertest.Page, _ *goquery.Selection) error {
	if _, _, err := p.Fetch(http.MethodGet, "/consent", nil); err != nil {
		return err
	}
	p.Hide(".fc-consent-root")
	return nil
}

func showOverlay(p *browsertest.Page, card *goquery.Selection) error {
	p.Hide(".overlay-content")
	card.Find(".overlay-content").RemoveAttr("style")
	return nil
}

func addFromListing(p *browsertest.Page, button *goquery.Selection) error {
	return addToCart(p, "/add_to_cart/"+button.AttrOr("data-product-id", ""))
}

func addFromDetails(p *browsertest.Page, button *goquery.Selection) error {
	quantity := p.Document().Find("#quantity").AttrOr("value", "")
	return addToCart(p, fmt.Sprintf("/add_to_cart/%s?quantity=%s", button.AttrOr("data-product-id", ""), quantity))
}

// addToCart shows the modal only when the storefront accepted the request, as the page script does.
func addToCart(p *browsertest.Page, target string) error {
	status, _, err := p.Fetch(http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		p.Show("#cartModal")
	}
	return nil
}

func closeModal(p *browsertest.Page, _ *goquery.Selection) error {
	p.Hide("#cartModal")
	return nil
}

func deleteCartRow(p *browsertest.Page, link *goquery.Selection) error {
	status, _, err := p.Fetch(http.MethodGet, "/delete_cart/"+link.AttrOr("data-product-id", ""), nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		link.Closest("tr").Remove()
	}
	return nil
}
