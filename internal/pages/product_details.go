package pages

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/components"
	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/models"
)

// Product details selectors, relative to the information panel
const (
	DetailsSelector          = ".product-information"
	DetailsNameSelector      = "h2"
	DetailsPriceSelector     = "span span"
	DetailsQuantitySelector  = "input#quantity"
	DetailsAddToCartSelector = "button.cart"
	DetailsInfoSelector      = "p"
)

// ProductDetailsPage reads one product's attributes and adds it to the cart.
type ProductDetailsPage struct {
	page      browser.Page
	site      *config.SiteConfig
	component browser.Locator
	modal     *components.AddToCartModal
}

// NewProductDetailsPage creates the product details page object.
func NewProductDetailsPage(page browser.Page, site *config.SiteConfig) *ProductDetailsPage {
	return &ProductDetailsPage{
		page:      page,
		site:      site,
		component: page.Locator(DetailsSelector),
		modal:     components.NewAddToCartModal(page),
	}
}

// Load opens the details page of product id.
func (p *ProductDetailsPage) Load(id int) error {
	url := p.site.URL(fmt.Sprintf("/product_details/%d", id))
	if err := p.page.Goto(url); err != nil {
		return fmt.Errorf("load product %d: %w", id, err)
	}
	if err := p.component.WaitFor(browser.StateVisible, p.site.Timeout); err != nil {
		return fmt.Errorf("product %d details not visible: %w", id, err)
	}
	return nil
}

func (p *ProductDetailsPage) Name() (string, error) {
	text, err := p.component.Locator(DetailsNameSelector).InnerText()
	if err != nil {
		return "", fmt.Errorf("read product name: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (p *ProductDetailsPage) Price() (int, error) {
	text, err := p.component.Locator(DetailsPriceSelector).InnerText()
	if err != nil {
		return 0, fmt.Errorf("read product price: %w", err)
	}
	return models.ParsePrice(text)
}

func (p *ProductDetailsPage) Category() (string, error) {
	return p.infoField(models.InfoCategory)
}

func (p *ProductDetailsPage) Availability() (string, error) {
	return p.infoField(models.InfoAvailability)
}

func (p *ProductDetailsPage) Condition() (string, error) {
	return p.infoField(models.InfoCondition)
}

func (p *ProductDetailsPage) Brand() (string, error) {
	return p.infoField(models.InfoBrand)
}

// Details reads every attribute of the panel.
func (p *ProductDetailsPage) Details() (models.ProductDetails, error) {
	var details models.ProductDetails
	var err error
	if details.Name, err = p.Name(); err != nil {
		return details, err
	}
	if details.Price, err = p.Price(); err != nil {
		return details, err
	}

	paragraphs, err := p.infoTexts()
	if err != nil {
		return details, err
	}
	details.ApplyInfo(paragraphs)
	return details, nil
}

// infoField returns the value of the first "Label: value" paragraph carrying
// label, or "" when the panel has none.
func (p *ProductDetailsPage) infoField(label string) (string, error) {
	paragraphs, err := p.infoTexts()
	if err != nil {
		return "", err
	}
	for _, text := range paragraphs {
		if value, ok := models.InfoFieldValue(text, label); ok {
			return value, nil
		}
	}
	return "", nil
}

func (p *ProductDetailsPage) infoTexts() ([]string, error) {
	paragraphs, err := p.component.Locator(DetailsInfoSelector).All()
	if err != nil {
		return nil, fmt.Errorf("list product info: %w", err)
	}
	texts := make([]string, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		text, err := paragraph.InnerText()
		if err != nil {
			return nil, fmt.Errorf("read product info: %w", err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// SetQuantity fills the quantity input and returns the value it now holds.
func (p *ProductDetailsPage) SetQuantity(quantity int) (int, error) {
	if err := p.component.Locator(DetailsQuantitySelector).Fill(strconv.Itoa(quantity)); err != nil {
		return 0, fmt.Errorf("fill quantity: %w", err)
	}
	return p.Quantity()
}

// TypeQuantity clears the quantity input, types chars key by key and returns
// what the input accepted.
func (p *ProductDetailsPage) TypeQuantity(chars string) (string, error) {
	input := p.component.Locator(DetailsQuantitySelector)
	if err := input.Clear(); err != nil {
		return "", fmt.Errorf("clear quantity: %w", err)
	}
	if err := input.PressSequentially(chars); err != nil {
		return "", fmt.Errorf("type quantity: %w", err)
	}
	return input.InputValue()
}

// Quantity returns the quantity input's value.
func (p *ProductDetailsPage) Quantity() (int, error) {
	value, err := p.component.Locator(DetailsQuantitySelector).InputValue()
	if err != nil {
		return 0, fmt.Errorf("read quantity: %w", err)
	}
	return models.ParseQuantity(value)
}

// AddToCart adds the product and waits for the modal, closing it again with closeModal.
func (p *ProductDetailsPage) AddToCart(closeModal bool) error {
	if err := p.clickAddToCart(); err != nil {
		return err
	}
	if closeModal {
		return p.modal.ClickContinueShopping()
	}
	return nil
}

// AddToCartAndViewCart adds the product and follows the modal to the cart.
func (p *ProductDetailsPage) AddToCartAndViewCart() error {
	if err := p.clickAddToCart(); err != nil {
		return err
	}
	return p.modal.ClickViewCart()
}

func (p *ProductDetailsPage) clickAddToCart() error {
	if err := p.component.Locator(DetailsAddToCartSelector).Click(); err != nil {
		return fmt.Errorf("click add to cart: %w", err)
	}
	return p.modal.WaitUntilVisible(p.site.Timeout)
}
