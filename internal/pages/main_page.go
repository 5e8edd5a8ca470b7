package pages

import (
	"fmt"

	"github.com/themizzi/shopcheck/internal/browser"
)

// SearchInputSelector matches the wiki's search box.
const SearchInputSelector = `[name="search"]`

// MainPage is the reference wiki's main page.
type MainPage struct {
	page browser.Page
	url  string
}

// NewMainPage creates the wiki main page object for url.
func NewMainPage(page browser.Page, url string) *MainPage {
	return &MainPage{page: page, url: url}
}

// URL returns the page address.
func (p *MainPage) URL() string {
	return p.url
}

// Load navigates to the main page.
func (p *MainPage) Load() error {
	if err := p.page.Goto(p.url); err != nil {
		return fmt.Errorf("load %s: %w", p.url, err)
	}
	return nil
}

// Title returns the document title.
func (p *MainPage) Title() (string, error) {
	return p.page.Title()
}

// SearchInputVisible reports whether the search box is shown.
func (p *MainPage) SearchInputVisible() (bool, error) {
	return p.page.Locator(SearchInputSelector).First().IsVisible()
}
