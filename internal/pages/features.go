package pages

import (
	"fmt"
	"strings"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/components"
	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/models"
)

// Listing selectors. Card parts resolve inside one card.
const (
	FeaturesSelector    = ".features_items"
	CardSelector        = ".product-image-wrapper"
	CardNameSelector    = ".productinfo p"
	CardPriceSelector   = ".productinfo h2"
	CardViewSelector    = ".choose a[href*='product_details']"
	CardAddSelector     = ".overlay-content .add-to-cart"
	CardOverlaySelector = ".overlay-content"
)

// FeaturesItems is the product grid of the home and products pages.
type FeaturesItems struct {
	page  browser.Page
	site  *config.SiteConfig
	cards browser.Locator
	modal *components.AddToCartModal
}

// NewFeaturesItems creates the product grid page object.
func NewFeaturesItems(page browser.Page, site *config.SiteConfig) *FeaturesItems {
	return &FeaturesItems{
		page:  page,
		site:  site,
		cards: page.Locator(FeaturesSelector).Locator(CardSelector),
		modal: components.NewAddToCartModal(page),
	}
}

// Load opens the products page.
func (f *FeaturesItems) Load() error {
	if err := f.page.Goto(f.site.URL("/products")); err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	if err := f.page.Locator(FeaturesSelector).WaitFor(browser.StateVisible, f.site.Timeout); err != nil {
		return fmt.Errorf("product grid not visible: %w", err)
	}
	return nil
}

// Count returns the number of cards.
func (f *FeaturesItems) Count() (int, error) {
	return f.cards.Count()
}

// Card returns the card at index.
func (f *FeaturesItems) Card(index int) browser.Locator {
	return f.cards.Nth(index)
}

// Cards returns every card.
func (f *FeaturesItems) Cards() ([]browser.Locator, error) {
	return f.cards.All()
}

func (f *FeaturesItems) Name(index int) (string, error) {
	text, err := f.Card(index).Locator(CardNameSelector).InnerText()
	if err != nil {
		return "", fmt.Errorf("read name of card %d: %w", index, err)
	}
	return strings.TrimSpace(text), nil
}

func (f *FeaturesItems) Price(index int) (int, error) {
	text, err := f.Card(index).Locator(CardPriceSelector).InnerText()
	if err != nil {
		return 0, fmt.Errorf("read price of card %d: %w", index, err)
	}
	return models.ParsePrice(text)
}

func (f *FeaturesItems) DetailURL(index int) (string, error) {
	href, err := f.Card(index).Locator(CardViewSelector).GetAttribute("href")
	if err != nil {
		return "", fmt.Errorf("read detail link of card %d: %w", index, err)
	}
	return href, nil
}

// Product reads the card at index.
func (f *FeaturesItems) Product(index int) (models.ProductCard, error) {
	var card models.ProductCard
	var err error
	if card.Name, err = f.Name(index); err != nil {
		return card, err
	}
	if card.Price, err = f.Price(index); err != nil {
		return card, err
	}
	if card.DetailURL, err = f.DetailURL(index); err != nil {
		return card, err
	}
	return card, nil
}

// Products reads every card, in grid order.
func (f *FeaturesItems) Products() ([]models.ProductCard, error) {
	n, err := f.Count()
	if err != nil {
		return nil, err
	}
	products := make([]models.ProductCard, 0, n)
	for i := 0; i < n; i++ {
		card, err := f.Product(i)
		if err != nil {
			return nil, err
		}
		products = append(products, card)
	}
	return products, nil
}

// ViewProduct follows the card's View Product link.
func (f *FeaturesItems) ViewProduct(index int) error {
	if err := f.Card(index).Locator(CardViewSelector).Click(); err != nil {
		return fmt.Errorf("view product %d: %w", index, err)
	}
	return nil
}

// AddToCartByHover adds the card's product through its hover overlay. With
// closeModal the confirmation is dismissed and the page left to settle.
func (f *FeaturesItems) AddToCartByHover(index int, closeModal bool) error {
	if err := f.hoverAndAdd(index); err != nil {
		return err
	}
	if !closeModal {
		return nil
	}
	if err := f.modal.ClickContinueShopping(); err != nil {
		return err
	}
	if err := f.modal.WaitUntilHidden(f.site.Timeout); err != nil {
		return err
	}
	return f.page.WaitForNetworkIdle(f.site.Timeout)
}

// AddToCartAndViewCart adds the card's product and follows the modal to the cart.
func (f *FeaturesItems) AddToCartAndViewCart(index int) error {
	if err := f.hoverAndAdd(index); err != nil {
		return err
	}
	return f.modal.ClickViewCart()
}

func (f *FeaturesItems) hoverAndAdd(index int) error {
	card := f.Card(index)
	if err := card.Hover(); err != nil {
		return fmt.Errorf("hover card %d: %w", index, err)
	}
	if err := card.Locator(CardOverlaySelector).WaitFor(browser.StateVisible, f.site.Timeout); err != nil {
		return fmt.Errorf("overlay of card %d not visible: %w", index, err)
	}
	if err := card.Locator(CardAddSelector).Click(); err != nil {
		return fmt.Errorf("click add to cart on card %d: %w", index, err)
	}
	return f.modal.WaitUntilVisible(f.site.Timeout)
}
