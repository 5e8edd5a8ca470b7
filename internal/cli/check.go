package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/catalog"
	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/metrics"
	"github.com/themizzi/shopcheck/internal/models"
	"github.com/themizzi/shopcheck/internal/scenario"
)

// Check failures reported after a run completed
var (
	ErrAuditFailed         = errors.New("cart audit found mismatched lines")
	ErrInconsistentCatalog = errors.New("catalog has cards that disagree with their details page")
)

// AuditStore persists cart audits.
type AuditStore interface {
	Create(ctx context.Context, audit *models.CartAudit) error
}

// CheckDependencies holds what the browser-driven checks need
type CheckDependencies struct {
	Site    *config.SiteConfig
	Page    browser.Page
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// Audits is optional; audits are only printed when nil.
	Audits AuditStore
	Out    io.Writer
}

func (d CheckDependencies) runner() *scenario.Runner {
	return scenario.NewRunner(d.Page, d.Site, d.Logger, d.Metrics)
}

func (d CheckDependencies) out() io.Writer {
	if d.Out == nil {
		return os.Stdout
	}
	return d.Out
}

// RunSmoke logs in with the configured credentials and out again
func RunSmoke(deps CheckDependencies) error {
	err := deps.runner().Smoke(scenario.Credentials{
		Email:    deps.Site.LoginEmail,
		Password: deps.Site.LoginPassword,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.out(), "smoke OK: %s logged in and out\n", deps.Site.LoginEmail)
	return nil
}

// RunAuditCart fills the cart with count products and audits it. A failed
// audit is stored before ErrAuditFailed is returned.
func RunAuditCart(ctx context.Context, deps CheckDependencies, count int) error {
	audit, err := deps.runner().AuditCart(count)
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.out(), audit.Summary())

	if deps.Audits != nil {
		if err := deps.Audits.Create(ctx, audit); err != nil {
			return fmt.Errorf("store audit: %w", err)
		}
		fmt.Fprintf(deps.out(), "audit stored: %s\n", audit.ID)
	}

	if !audit.Passed() {
		return fmt.Errorf("%w: ids %v", ErrAuditFailed, audit.MismatchIDs())
	}
	return nil
}

// RunDeleteAccount signs up a throwaway account under domain and deletes it
func RunDeleteAccount(deps CheckDependencies, domain string) error {
	identity, err := deps.runner().DeleteAccount(domain)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.out(), "account %s created and deleted\n", identity.Email)
	return nil
}

// RunWiki checks the reference wiki's main page
func RunWiki(deps CheckDependencies) error {
	title, err := deps.runner().Wiki(deps.Site.WikiURL)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.out(), "wiki OK: %q\n", title)
	return nil
}

// Crawler collects the storefront catalog.
type Crawler interface {
	Crawl(ctx context.Context) ([]catalog.Product, error)
}

// CatalogDependencies holds what the catalog crawl needs
type CatalogDependencies struct {
	Crawler Crawler
	Logger  *zap.Logger
	Out     io.Writer
}

// RunCatalog crawls the catalog, writes it as JSON and checks every card
// against its details page
func RunCatalog(ctx context.Context, deps CatalogDependencies) error {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}

	products, crawlErr := deps.Crawler.Crawl(ctx)
	if crawlErr != nil && len(products) == 0 {
		return fmt.Errorf("crawl catalog: %w", crawlErr)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(products); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}

	var inconsistent []error
	for _, p := range products {
		if err := p.Consistent(); err != nil {
			log.Warn("inconsistent product", zap.Int("id", p.ID), zap.Error(err))
			inconsistent = append(inconsistent, err)
		}
	}

	var errs []error
	if crawlErr != nil {
		errs = append(errs, fmt.Errorf("crawl catalog: %w", crawlErr))
	}
	if len(inconsistent) > 0 {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInconsistentCatalog, errors.Join(inconsistent...)))
	}
	return errors.Join(errs...)
}
