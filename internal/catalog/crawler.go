// Package catalog crawls the storefront's product listing and detail pages
// over plain HTTP, without a browser. It reads the same markup the page
// objects drive, so a crawl doubles as a consistency check between a
// product's listing card and its details page.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/metrics"
	"github.com/themizzi/shopcheck/internal/models"
	"github.com/themizzi/shopcheck/internal/pages"
)

// DefaultUserAgent identifies crawler requests.
const DefaultUserAgent = "shopcheck-catalog/1.0"

// ErrCardMismatch marks a listing card that disagrees with its details page.
var ErrCardMismatch = errors.New("listing card does not match details page")

// Config tunes the crawler.
type Config struct {
	Address     string
	UserAgent   string
	Parallelism int
	Delay       time.Duration
	Timeout     time.Duration
	CacheSize   int
}

// DefaultConfig returns a sequential, polite crawl of address.
func DefaultConfig(address string) Config {
	return Config{
		Address:     strings.TrimRight(address, "/"),
		UserAgent:   DefaultUserAgent,
		Parallelism: 1,
		Delay:       0,
		Timeout:     10 * time.Second,
		CacheSize:   256,
	}
}

// Product is one listed product with the attributes of its details page.
// Details stays zero when the details page could not be read.
type Product struct {
	ID      int                   `json:"id"`
	Card    models.ProductCard    `json:"card"`
	Details models.ProductDetails `json:"details"`
}

// Consistent checks the card shows the same name and price as the details page.
func (p Product) Consistent() error {
	if p.Card.Name != p.Details.Name || p.Card.Price != p.Details.Price {
		return fmt.Errorf("%w: id=%d card %q %s, details %q %s", ErrCardMismatch, p.ID,
			p.Card.Name, models.FormatPrice(p.Card.Price), p.Details.Name, models.FormatPrice(p.Details.Price))
	}
	return nil
}

// Crawler collects the catalog with colly. Detail pages are cached across
// crawls, so repeated crawls only fetch the listing.
type Crawler struct {
	cfg       Config
	collector *colly.Collector
	cache     *lru.Cache[int, models.ProductDetails]
	metrics   *metrics.Metrics
	log       *zap.Logger

	mu       sync.Mutex
	ctx      context.Context
	products []*Product
	byID     map[int]*Product
	errs     []error

	handlersOnce sync.Once
}

// NewCrawler builds a crawler for cfg.Address. logger and m may be nil.
func NewCrawler(cfg Config, logger *zap.Logger, m *metrics.Metrics) (*Crawler, error) {
	parsed, err := url.Parse(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("address must include a host")
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if cfg.CacheSize < 1 {
		cfg.CacheSize = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	collector := colly.NewCollector(
		colly.Async(cfg.Parallelism > 1),
		colly.AllowedDomains(parsed.Hostname(), parsed.Host),
		colly.AllowURLRevisit(),
		colly.UserAgent(cfg.UserAgent),
	)
	if cfg.Timeout > 0 {
		collector.SetRequestTimeout(cfg.Timeout)
	}
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		Delay:       cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	cache, err := lru.New[int, models.ProductDetails](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create detail cache: %w", err)
	}

	return &Crawler{
		cfg:       cfg,
		collector: collector,
		cache:     cache,
		metrics:   m,
		log:       logger.Named("catalog"),
	}, nil
}

// Crawl visits the products page and every card's details page. Products
// come back in listing order. Per-page failures are joined into the error
// alongside whatever was collected.
func (c *Crawler) Crawl(ctx context.Context) ([]Product, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.ctx = ctx
	c.products = nil
	c.byID = make(map[int]*Product)
	c.errs = nil
	c.mu.Unlock()
	c.configureHandlers()

	start := time.Now()
	listing := c.cfg.Address + "/products"
	if err := c.collector.Visit(listing); err != nil {
		return nil, fmt.Errorf("visit %s: %w", listing, err)
	}
	c.collector.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	products := make([]Product, len(c.products))
	for i, p := range c.products {
		products[i] = *p
	}
	c.log.Info("catalog crawled",
		zap.Int("products", len(products)),
		zap.Int("errors", len(c.errs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	if err := ctx.Err(); err != nil {
		c.errs = append(c.errs, err)
	}
	return products, errors.Join(c.errs...)
}

func (c *Crawler) configureHandlers() {
	c.handlersOnce.Do(func() {
		c.collector.OnRequest(func(r *colly.Request) {
			c.mu.Lock()
			ctx := c.ctx
			c.mu.Unlock()
			if ctx != nil && ctx.Err() != nil {
				r.Abort()
				return
			}
			c.log.Debug("fetching", zap.String("url", r.URL.String()))
		})

		c.collector.OnHTML(pages.FeaturesSelector, func(e *colly.HTMLElement) {
			e.ForEach(pages.CardSelector, func(_ int, card *colly.HTMLElement) {
				c.handleCard(card)
			})
		})

		c.collector.OnHTML(pages.DetailsSelector, c.handleDetails)

		c.collector.OnError(func(r *colly.Response, err error) {
			status := 0
			target := ""
			if r != nil {
				status = r.StatusCode
				if r.Request != nil && r.Request.URL != nil {
					target = r.Request.URL.String()
				}
			}
			category := errorTypeLabel(err, status)
			c.metrics.IncCatalogError(category)
			c.log.Error("request error",
				zap.String("url", target),
				zap.String("category", category),
				zap.Error(err),
			)
			c.fail(fmt.Errorf("fetch %s: %s: %w", target, category, err))
		})
	})
}

func (c *Crawler) handleCard(card *colly.HTMLElement) {
	href := card.ChildAttr(pages.CardViewSelector, "href")
	id, err := ProductIDFromURL(href)
	if err != nil {
		c.parseFailure(err)
		return
	}
	price, err := models.ParsePrice(card.ChildText(pages.CardPriceSelector))
	if err != nil {
		c.parseFailure(fmt.Errorf("card of product %d: %w", id, err))
		return
	}

	product := &Product{
		ID: id,
		Card: models.ProductCard{
			Name:      strings.TrimSpace(card.ChildText(pages.CardNameSelector)),
			Price:     price,
			DetailURL: href,
		},
	}

	details, cached := c.cache.Get(id)
	if cached {
		product.Details = details
		c.metrics.IncCacheHit()
		c.metrics.IncCatalogItems()
	}

	c.mu.Lock()
	if _, seen := c.byID[id]; seen {
		c.mu.Unlock()
		return
	}
	c.products = append(c.products, product)
	c.byID[id] = product
	c.mu.Unlock()

	if cached {
		return
	}
	// Synchronous collectors fetch the page inside this call, so mu must not be held.
	if err := card.Request.Visit(card.Request.AbsoluteURL(href)); err != nil {
		c.fail(fmt.Errorf("visit details of product %d: %w", id, err))
	}
}

func (c *Crawler) handleDetails(e *colly.HTMLElement) {
	id, err := ProductIDFromURL(e.Request.URL.Path)
	if err != nil {
		c.parseFailure(err)
		return
	}
	price, err := models.ParsePrice(e.ChildText(pages.DetailsPriceSelector))
	if err != nil {
		c.parseFailure(fmt.Errorf("details of product %d: %w", id, err))
		return
	}

	details := models.ProductDetails{
		Name:  strings.TrimSpace(e.ChildText(pages.DetailsNameSelector)),
		Price: price,
	}
	var info []string
	e.ForEach(pages.DetailsInfoSelector, func(_ int, p *colly.HTMLElement) {
		info = append(info, strings.TrimSpace(p.Text))
	})
	details.ApplyInfo(info)
	c.cache.Add(id, details)
	c.metrics.IncCatalogItems()

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.byID[id]; ok {
		p.Details = details
	}
}

func (c *Crawler) parseFailure(err error) {
	c.metrics.IncCatalogError("parse")
	c.log.Warn("unparseable markup", zap.Error(err))
	c.fail(err)
}

func (c *Crawler) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

// ProductIDFromURL extracts the id from a /product_details/<id> link.
func ProductIDFromURL(link string) (int, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return 0, fmt.Errorf("parse product link %q: %w", link, err)
	}
	dir, last := path.Split(strings.TrimRight(parsed.Path, "/"))
	if path.Base(strings.TrimRight(dir, "/")) != "product_details" {
		return 0, fmt.Errorf("not a product details link: %q", link)
	}
	id, err := strconv.Atoi(last)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id in %q", link)
	}
	return id, nil
}

func errorTypeLabel(err error, status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusTooManyRequests:
		return "rate_limited"
	}
	if status >= http.StatusInternalServerError {
		return "server_error"
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, new(*net.OpError)):
		return "connection"
	default:
		return "other"
	}
}
