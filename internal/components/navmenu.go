package components

import (
	"fmt"
	"time"

	"github.com/themizzi/shopcheck/internal/browser"
)

// NavMenuSelector matches the storefront's header menu.
const NavMenuSelector = `[class*="shop-menu"]`

// NavLink is an entry of the header menu.
type NavLink int

// Header menu entries
const (
	NavHome NavLink = iota
	NavProducts
	NavCart
	NavLogin
	NavLogout
	NavContact
	NavTestCases
	NavAPITesting
	NavVideoTutorials
	NavDownloadApp
	NavDeleteAccount
)

var navLinks = map[NavLink]struct {
	name     string
	selector string
}{
	NavHome:           {"Home", `a[href="/"]`},
	NavProducts:       {"Products", `a[href="/products"]`},
	NavCart:           {"Cart", `a[href="/view_cart"]`},
	NavLogin:          {"Signup / Login", `a[href="/login"]`},
	NavLogout:         {"Logout", `a[href="/logout"]`},
	NavContact:        {"Contact us", `a[href="/contact_us"]`},
	NavTestCases:      {"Test Cases", `a[href="/test_cases"]`},
	NavAPITesting:     {"API Testing", `a[href="/api_list"]`},
	NavVideoTutorials: {"Video Tutorials", `a[href="/video_tutorials"]`},
	NavDownloadApp:    {"Download App", `a[href="/download_app"]`},
	NavDeleteAccount:  {"Delete Account", `a[href="/delete_account"]`},
}

func (l NavLink) String() string {
	if link, ok := navLinks[l]; ok {
		return link.name
	}
	return fmt.Sprintf("NavLink(%d)", int(l))
}

// Selector returns the link's selector inside the menu.
func (l NavLink) Selector() string {
	return navLinks[l].selector
}

// NavMenu is the storefront header menu. Login state is read from which links it shows.
type NavMenu struct {
	menu browser.Locator
}

// NewNavMenu creates the header menu component for page.
func NewNavMenu(page browser.Page) *NavMenu {
	return &NavMenu{menu: page.Locator(NavMenuSelector)}
}

// Link returns the locator of a menu entry.
func (n *NavMenu) Link(l NavLink) (browser.Locator, error) {
	selector := l.Selector()
	if selector == "" {
		return nil, fmt.Errorf("unknown nav link %s", l)
	}
	return n.menu.Locator(selector), nil
}

// Click follows a menu entry.
func (n *NavMenu) Click(l NavLink) error {
	link, err := n.Link(l)
	if err != nil {
		return err
	}
	if err := link.Click(); err != nil {
		return fmt.Errorf("click nav link %s: %w", l, err)
	}
	return nil
}

// AssertLoggedIn waits for the Logout and Delete Account entries.
func (n *NavMenu) AssertLoggedIn(timeout time.Duration) error {
	return n.waitVisible(timeout, NavLogout, NavDeleteAccount)
}

// AssertLoggedOut waits for the Signup / Login entry.
func (n *NavMenu) AssertLoggedOut(timeout time.Duration) error {
	return n.waitVisible(timeout, NavLogin)
}

// IsLoggedIn reports whether the menu currently offers Logout.
func (n *NavMenu) IsLoggedIn() (bool, error) {
	link, err := n.Link(NavLogout)
	if err != nil {
		return false, err
	}
	return link.IsVisible()
}

func (n *NavMenu) waitVisible(timeout time.Duration, links ...NavLink) error {
	for _, l := range links {
		link, err := n.Link(l)
		if err != nil {
			return err
		}
		if err := link.WaitFor(browser.StateVisible, timeout); err != nil {
			return fmt.Errorf("nav link %s not visible: %w", l, err)
		}
	}
	return nil
}
