package components

import (
	"fmt"
	"time"

	"github.com/themizzi/shopcheck/internal/browser"
)

// Add-to-cart modal selectors
const (
	ModalSelector            = ".modal-content"
	ModalViewCartSelector    = `a[href="/view_cart"]`
	ModalContinueShoppingSel = `button.btn.btn-success.close-modal.btn-block[data-dismiss="modal"]`
)

// AddToCartModal is the confirmation dialog shown after adding a product.
// Opening it is up to the caller; closing it again is too.
type AddToCartModal struct {
	modal browser.Locator
}

// NewAddToCartModal creates the modal component for page.
func NewAddToCartModal(page browser.Page) *AddToCartModal {
	return &AddToCartModal{modal: page.Locator(ModalSelector)}
}

// WaitUntilVisible waits for the modal to show.
func (m *AddToCartModal) WaitUntilVisible(timeout time.Duration) error {
	if err := m.modal.WaitFor(browser.StateVisible, timeout); err != nil {
		return fmt.Errorf("add to cart modal not visible: %w", err)
	}
	return nil
}

// WaitUntilHidden waits for the modal to close.
func (m *AddToCartModal) WaitUntilHidden(timeout time.Duration) error {
	if err := m.modal.WaitFor(browser.StateHidden, timeout); err != nil {
		return fmt.Errorf("add to cart modal still visible: %w", err)
	}
	return nil
}

// IsVisible reports whether the modal is currently shown.
func (m *AddToCartModal) IsVisible() (bool, error) {
	return m.modal.IsVisible()
}

// ClickContinueShopping closes the modal, staying on the page.
func (m *AddToCartModal) ClickContinueShopping() error {
	if err := m.modal.Locator(ModalContinueShoppingSel).Click(); err != nil {
		return fmt.Errorf("click continue shopping: %w", err)
	}
	return nil
}

// ClickViewCart follows the modal's link to the cart.
func (m *AddToCartModal) ClickViewCart() error {
	if err := m.modal.Locator(ModalViewCartSelector).Click(); err != nil {
		return fmt.Errorf("click view cart: %w", err)
	}
	return nil
}
