package pages

import (
	"fmt"
	"strings"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/models"
)

// Cart selectors. Row parts resolve inside one row.
const (
	CartTableSelector   = "table.table.table-condensed"
	CartRowsSelector    = "tr[id^='product-']"
	RowNameSelector     = ".cart_description h4 a"
	RowCategorySelector = ".cart_description p"
	RowPriceSelector    = ".cart_price p"
	RowQuantitySelector = ".cart_quantity button"
	RowTotalSelector    = ".cart_total_price"
	RowDeleteSelector   = ".cart_quantity_delete"
	RowQuantityInputSel = "input[type='number'], input"
)

// CartPage reads the shopping cart table.
type CartPage struct {
	page  browser.Page
	site  *config.SiteConfig
	table browser.Locator
}

// NewCartPage creates the cart page object.
func NewCartPage(page browser.Page, site *config.SiteConfig) *CartPage {
	return &CartPage{page: page, site: site, table: page.Locator(CartTableSelector)}
}

// Load opens the cart.
func (c *CartPage) Load() error {
	if err := c.page.Goto(c.site.URL("/view_cart")); err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if err := c.table.WaitFor(browser.StateAttached, c.site.Timeout); err != nil {
		return fmt.Errorf("cart table not found: %w", err)
	}
	return nil
}

// Row returns the row of product id.
func (c *CartPage) Row(id int) *ProductRow {
	return &ProductRow{row: c.table.Locator("tr#" + models.RowID(id))}
}

// Rows returns every product row in table order.
func (c *CartPage) Rows() ([]*ProductRow, error) {
	locators, err := c.table.Locator(CartRowsSelector).All()
	if err != nil {
		return nil, fmt.Errorf("list cart rows: %w", err)
	}
	rows := make([]*ProductRow, len(locators))
	for i, l := range locators {
		rows[i] = &ProductRow{row: l}
	}
	return rows, nil
}

// ProductIDs returns the product id of every row.
func (c *CartPage) ProductIDs() ([]int, error) {
	rows, err := c.Rows()
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		id, err := row.ID()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Snapshot reads every row.
func (c *CartPage) Snapshot() (models.Cart, error) {
	rows, err := c.Rows()
	if err != nil {
		return models.Cart{}, err
	}
	cart := models.Cart{Lines: make([]models.CartLine, 0, len(rows))}
	for _, row := range rows {
		line, err := row.Line()
		if err != nil {
			return models.Cart{}, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart, nil
}

// TotalValue sums the displayed line totals.
func (c *CartPage) TotalValue() (int, error) {
	cart, err := c.Snapshot()
	if err != nil {
		return 0, err
	}
	return cart.Value(), nil
}

// AssertLineTotals checks total == price * quantity on every row. A
// violation is reported as *models.LineTotalMismatchError.
func (c *CartPage) AssertLineTotals() error {
	cart, err := c.Snapshot()
	if err != nil {
		return err
	}
	return cart.ValidateLineTotals()
}

// ProductRow is one line of the cart table.
type ProductRow struct {
	row browser.Locator
}

// ID parses the product id from the row's DOM id.
func (r *ProductRow) ID() (int, error) {
	domID, err := r.row.GetAttribute("id")
	if err != nil {
		return 0, fmt.Errorf("read row id: %w", err)
	}
	return models.ParseRowID(domID)
}

func (r *ProductRow) Name() (string, error) {
	return r.text(RowNameSelector, "name")
}

func (r *ProductRow) Category() (string, error) {
	return r.text(RowCategorySelector, "category")
}

func (r *ProductRow) Price() (int, error) {
	text, err := r.text(RowPriceSelector, "price")
	if err != nil {
		return 0, err
	}
	return models.ParsePrice(text)
}

func (r *ProductRow) Quantity() (int, error) {
	text, err := r.text(RowQuantitySelector, "quantity")
	if err != nil {
		return 0, err
	}
	return models.ParseQuantity(text)
}

func (r *ProductRow) Total() (int, error) {
	text, err := r.text(RowTotalSelector, "total")
	if err != nil {
		return 0, err
	}
	return models.ParsePrice(text)
}

// Line reads the whole row.
func (r *ProductRow) Line() (models.CartLine, error) {
	var line models.CartLine
	var err error
	if line.ID, err = r.ID(); err != nil {
		return line, err
	}
	if line.Name, err = r.Name(); err != nil {
		return line, err
	}
	if line.Category, err = r.Category(); err != nil {
		return line, err
	}
	if line.Price, err = r.Price(); err != nil {
		return line, err
	}
	if line.Quantity, err = r.Quantity(); err != nil {
		return line, err
	}
	if line.Total, err = r.Total(); err != nil {
		return line, err
	}
	return line, nil
}

// Delete removes the row from the cart.
func (r *ProductRow) Delete() error {
	if err := r.row.Locator(RowDeleteSelector).Click(); err != nil {
		return fmt.Errorf("delete cart row: %w", err)
	}
	return nil
}

// SetQuantity fills the row's quantity input.
func (r *ProductRow) SetQuantity(quantity int) error {
	if err := r.row.Locator(RowQuantityInputSel).Fill(fmt.Sprint(quantity)); err != nil {
		return fmt.Errorf("fill row quantity: %w", err)
	}
	return nil
}

func (r *ProductRow) text(selector, field string) (string, error) {
	text, err := r.row.Locator(selector).InnerText()
	if err != nil {
		return "", fmt.Errorf("read row %s: %w", field, err)
	}
	return strings.TrimSpace(text), nil
}
