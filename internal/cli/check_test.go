package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/themizzi/shopcheck/internal/browser/browsertest"
	"github.com/themizzi/shopcheck/internal/catalog"
	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/demosite/demositetest"
	"github.com/themizzi/shopcheck/internal/metrics"
	"github.com/themizzi/shopcheck/internal/models"
)

// oneCardShopHTML lists Men Tshirt with an overlay and an add-to-cart modal.
const oneCardShopHTML = `<html><body>
<div class="features_items">
  <div class="product-image-wrapper">
    <div class="productinfo"><h2>Rs. 400</h2><p>Men Tshirt</p></div>
    <div class="product-overlay"><div class="overlay-content" style="display: none">
      <a href="#" class="btn add-to-cart" data-product-id="2">Add to cart</a>
    </div></div>
    <div class="choose"><a href="/product_details/2">View Product</a></div>
  </div>
</div>
<div id="cartModal" style="display: none"><div class="modal-content">
  <a href="/view_cart">View Cart</a>
  <button class="btn btn-success close-modal btn-block" data-dismiss="modal">Continue Shopping</button>
</div></div>
</body></html>`

// overchargedCartHTML bills three Men Tshirts at Rs. 1,300.
const overchargedCartHTML = `<html><body>
<table class="table table-condensed"><tbody>
<tr id="product-2">
  <td class="cart_description"><h4><a href="/product_details/2">Men Tshirt</a></h4><p>Men &gt; Tshirts</p></td>
  <td class="cart_price"><p>Rs. 400</p></td>
  <td class="cart_quantity"><button class="disabled">3</button></td>
  <td class="cart_total"><p class="cart_total_price">Rs. 1,300</p></td>
</tr>
</tbody></table>
</body></html>`

func overchargingShop() *browsertest.Page {
	return browsertest.New("http://shop.test").
		Route("/products", oneCardShopHTML).
		Route("/view_cart", overchargedCartHTML).
		OnHover(".product-image-wrapper", func(_ *browsertest.Page, card *goquery.Selection) error {
			card.Find(".overlay-content").RemoveAttr("style")
			return nil
		}).
		OnClick(".add-to-cart", func(p *browsertest.Page, _ *goquery.Selection) error {
			p.Show("#cartModal")
			return nil
		}).
		OnClick("#cartModal .close-modal", func(p *browsertest.Page, _ *goquery.Selection) error {
			p.Hide("#cartModal")
			return nil
		})
}

type recordingStore struct {
	audits []*models.CartAudit
	err    error
}

func (s *recordingStore) Create(_ context.Context, audit *models.CartAudit) error {
	if s.err != nil {
		return s.err
	}
	s.audits = append(s.audits, audit)
	return nil
}

type stubCrawler struct {
	products []catalog.Product
	err      error
}

func (c stubCrawler) Crawl(context.Context) ([]catalog.Product, error) {
	return c.products, c.err
}

func demoDeps(t *testing.T) (CheckDependencies, *demositetest.Site, *bytes.Buffer) {
	t.Helper()
	site := demositetest.New(t)
	site.Config.LoginEmail = demositetest.DemoEmail
	site.Config.LoginPassword = demositetest.DemoPassword
	var out bytes.Buffer
	return CheckDependencies{
		Site:    site.Config,
		Page:    site.Page,
		Logger:  zaptest.NewLogger(t),
		Metrics: metrics.New(),
		Out:     &out,
	}, site, &out
}

func TestRunSmoke(t *testing.T) {
	deps, _, out := demoDeps(t)

	require.NoError(t, RunSmoke(deps))
	assert.Equal(t, "smoke OK: "+demositetest.DemoEmail+" logged in and out\n", out.String())

	deps.Site.LoginPassword = ""
	assert.Error(t, RunSmoke(deps))
}

func TestRunAuditCart_Passed(t *testing.T) {
	// GIVEN
	deps, _, out := demoDeps(t)
	store := &recordingStore{}
	deps.Audits = store

	// WHEN
	err := RunAuditCart(context.Background(), deps, 3)

	// THEN
	require.NoError(t, err)
	require.Len(t, store.audits, 1)
	assert.True(t, store.audits[0].Passed())
	assert.Equal(t, 3, store.audits[0].Lines)
	assert.Contains(t, out.String(), "cart OK: 3 lines, value Rs. 1,900")
	assert.Contains(t, out.String(), "audit stored: "+store.audits[0].ID)
}

func TestRunAuditCart_Mismatch(t *testing.T) {
	// GIVEN
	store := &recordingStore{}
	var out bytes.Buffer
	deps := CheckDependencies{
		Site:   &config.SiteConfig{Address: "http://shop.test", Timeout: 50 * time.Millisecond},
		Page:   overchargingShop(),
		Logger: zaptest.NewLogger(t),
		Audits: store,
		Out:    &out,
	}

	// WHEN
	err := RunAuditCart(context.Background(), deps, 1)

	// THEN
	assert.ErrorIs(t, err, ErrAuditFailed)
	require.Len(t, store.audits, 1, "failed audits are stored too")
	assert.Equal(t, []int{2}, store.audits[0].MismatchIDs())
	assert.True(t, strings.HasPrefix(out.String(), "cart FAILED: 1 of 1 lines mismatched (ids [2])"), out.String())
}

func TestRunAuditCart_StoreError(t *testing.T) {
	deps, _, _ := demoDeps(t)
	storeErr := errors.New("database is down")
	deps.Audits = &recordingStore{err: storeErr}

	err := RunAuditCart(context.Background(), deps, 1)

	assert.ErrorIs(t, err, storeErr)
}

func TestRunDeleteAccount(t *testing.T) {
	deps, _, out := demoDeps(t)

	require.NoError(t, RunDeleteAccount(deps, "example.test"))

	assert.Contains(t, out.String(), "@example.test created and deleted")
}

func TestRunWiki(t *testing.T) {
	var out bytes.Buffer
	deps := CheckDependencies{
		Site: &config.SiteConfig{WikiURL: "https://wiki.test/wiki/Main_Page", Timeout: time.Second},
		Page: browsertest.New("https://wiki.test").Route("/wiki/Main_Page",
			`<html><head><title>Main Page</title></head><body><input name="search"></body></html>`),
		Out: &out,
	}

	require.NoError(t, RunWiki(deps))
	assert.Equal(t, "wiki OK: \"Main Page\"\n", out.String())
}

func TestRunCatalog(t *testing.T) {
	consistent := catalog.Product{
		ID:      1,
		Card:    models.ProductCard{Name: "Blue Top", Price: 500, DetailURL: "/product_details/1"},
		Details: models.ProductDetails{Name: "Blue Top", Price: 500},
	}
	repriced := catalog.Product{
		ID:      2,
		Card:    models.ProductCard{Name: "Men Tshirt", Price: 400, DetailURL: "/product_details/2"},
		Details: models.ProductDetails{Name: "Men Tshirt", Price: 450},
	}
	crawlErr := errors.New("fetch failed")

	tests := []struct {
		name      string
		crawler   stubCrawler
		wantErrs  []error
		wantJSON  bool
		wantClean bool
	}{
		{name: "consistent", crawler: stubCrawler{products: []catalog.Product{consistent}}, wantJSON: true, wantClean: true},
		{name: "inconsistent", crawler: stubCrawler{products: []catalog.Product{consistent, repriced}}, wantErrs: []error{ErrInconsistentCatalog, catalog.ErrCardMismatch}, wantJSON: true},
		{name: "partial crawl", crawler: stubCrawler{products: []catalog.Product{consistent}, err: crawlErr}, wantErrs: []error{crawlErr}, wantJSON: true},
		{name: "failed crawl", crawler: stubCrawler{err: crawlErr}, wantErrs: []error{crawlErr}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			err := RunCatalog(context.Background(), CatalogDependencies{Crawler: tt.crawler, Logger: zaptest.NewLogger(t), Out: &out})

			if tt.wantClean {
				assert.NoError(t, err)
			}
			for _, want := range tt.wantErrs {
				assert.ErrorIs(t, err, want)
			}
			if tt.wantJSON {
				assert.Contains(t, out.String(), `"detail_url": "/product_details/1"`)
			} else {
				assert.Empty(t, out.String())
			}
		})
	}
}
