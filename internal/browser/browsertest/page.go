// Package browsertest provides an in-process browser.Page over goquery
// documents. Pages come from static HTML routes or an http.Handler; page
// scripts are emulated with click and hover hooks that mutate the document.
//
// Waits never sleep: the document only changes inside hooks and navigation,
// so a state that does not hold when checked is reported as browser.ErrTimeout.
package browsertest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/themizzi/shopcheck/internal/browser"
)

const maxRedirects = 10

// ErrNoRoute is returned when navigation targets a path with no route and no handler.
var ErrNoRoute = errors.New("no route")

// HookFunc emulates a page script reacting to an interaction with el.
type HookFunc func(p *Page, el *goquery.Selection) error

type hook struct {
	selector string
	fn       HookFunc
}

// Page is an in-process browser.Page.
type Page struct {
	base    *url.URL
	current *url.URL
	doc     *goquery.Document
	routes  map[string]string
	handler http.Handler
	cookies map[string]*http.Cookie
	click   []hook
	hover   []hook
	history []string
	hovered *goquery.Selection
}

var _ browser.Page = (*Page)(nil)

// New creates a page resolving relative URLs against baseURL.
func New(baseURL string) *Page {
	base, err := url.Parse(baseURL)
	if err != nil {
		panic(fmt.Sprintf("browsertest: invalid base URL %q: %v", baseURL, err))
	}
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader("<html><head></head><body></body></html>"))
	return &Page{
		base:    base,
		current: &url.URL{Scheme: "about", Opaque: "blank"},
		doc:     doc,
		routes:  make(map[string]string),
		cookies: make(map[string]*http.Cookie),
	}
}

// Route serves html for GET requests to path. Routes win over the handler.
func (p *Page) Route(path, html string) *Page {
	p.routes[path] = html
	return p
}

// WithHandler serves every unrouted request from h, keeping cookies between requests.
func (p *Page) WithHandler(h http.Handler) *Page {
	p.handler = h
	return p
}

// OnClick runs fn instead of the default click behaviour for elements matching selector.
func (p *Page) OnClick(selector string, fn HookFunc) *Page {
	p.click = append(p.click, hook{selector: selector, fn: fn})
	return p
}

// OnHover runs fn when an element matching selector is hovered.
func (p *Page) OnHover(selector string, fn HookFunc) *Page {
	p.hover = append(p.hover, hook{selector: selector, fn: fn})
	return p
}

// Document exposes the current document for hooks and assertions.
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// History lists every URL loaded, oldest first.
func (p *Page) History() []string {
	return append([]string(nil), p.history...)
}

// Cookie returns a cookie the handler has set and not yet expired.
func (p *Page) Cookie(name string) (*http.Cookie, bool) {
	c, ok := p.cookies[name]
	return c, ok
}

// Hovered returns the element last hovered, or an empty selection.
func (p *Page) Hovered() *goquery.Selection {
	if p.hovered == nil {
		return p.doc.Selection.Slice(0, 0)
	}
	return p.hovered
}

// Show makes every element matching selector visible.
func (p *Page) Show(selector string) {
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		s.RemoveAttr("hidden")
		s.SetAttr("style", withoutDisplayNone(s.AttrOr("style", "")))
	})
}

// Hide hides every element matching selector.
func (p *Page) Hide(selector string) {
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		style := strings.TrimSpace(withoutDisplayNone(s.AttrOr("style", "")))
		if style != "" && !strings.HasSuffix(style, ";") {
			style += ";"
		}
		s.SetAttr("style", style+"display: none")
	})
}

// Fetch issues a background request, like a script's fetch call, without navigating.
func (p *Page) Fetch(method, target string, form url.Values) (int, string, error) {
	res, err := p.do(method, p.resolve(target), form)
	if err != nil {
		return 0, "", err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	return res.StatusCode, string(body), err
}

// Visit navigates with method, following redirects like a browser.
func (p *Page) Visit(method, target string, form url.Values) error {
	u := p.resolve(target)
	for i := 0; i <= maxRedirects; i++ {
		if html, ok := p.routes[u.Path]; ok && method == http.MethodGet {
			return p.load(u, strings.NewReader(html))
		}
		if p.handler == nil {
			return fmt.Errorf("browsertest: %w for %s %s", ErrNoRoute, method, u)
		}

		res, err := p.do(method, u, form)
		if err != nil {
			return err
		}
		location := res.Header.Get("Location")
		if res.StatusCode >= 300 && res.StatusCode < 400 && location != "" {
			res.Body.Close()
			next, err := u.Parse(location)
			if err != nil {
				return fmt.Errorf("browsertest: bad redirect %q: %w", location, err)
			}
			u, method, form = next, http.MethodGet, nil
			continue
		}
		err = p.load(u, res.Body)
		res.Body.Close()
		return err
	}
	return fmt.Errorf("browsertest: too many redirects from %s", target)
}

func (p *Page) load(u *url.URL, body io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return fmt.Errorf("browsertest: parse %s: %w", u, err)
	}
	p.doc = doc
	p.current = u
	p.hovered = nil
	p.history = append(p.history, u.String())
	return nil
}

func (p *Page) do(method string, u *url.URL, form url.Values) (*http.Response, error) {
	if p.handler == nil {
		return nil, fmt.Errorf("browsertest: %w for %s %s", ErrNoRoute, method, u)
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, u.String(), body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range p.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	p.handler.ServeHTTP(rec, req)
	res := rec.Result()
	for _, c := range res.Cookies() {
		if c.MaxAge < 0 {
			delete(p.cookies, c.Name)
			continue
		}
		p.cookies[c.Name] = c
	}
	return res, nil
}

func (p *Page) resolve(target string) *url.URL {
	ref, err := url.Parse(target)
	if err != nil {
		return p.base
	}
	from := p.current
	if from.Scheme == "about" {
		from = p.base
	}
	return from.ResolveReference(ref)
}

// Goto navigates to url with a GET request.
func (p *Page) Goto(url string) error {
	return p.Visit(http.MethodGet, url, nil)
}

// URL returns the current URL.
func (p *Page) URL() string {
	return p.current.String()
}

// Title returns the document title.
func (p *Page) Title() (string, error) {
	return strings.TrimSpace(p.doc.Find("title").First().Text()), nil
}

// Locator starts a lazy selector chain at the document root.
func (p *Page) Locator(selector string) browser.Locator {
	return &Locator{page: p, steps: []step{{selector: selector}}}
}

// WaitForURL checks the current URL against url.
func (p *Page) WaitForURL(url string, timeout time.Duration) error {
	if p.URL() != url {
		return fmt.Errorf("%w: waiting %v for URL %q, current %q", browser.ErrTimeout, timeout, url, p.URL())
	}
	return nil
}

// WaitForNetworkIdle is immediate: hooks and fetches complete synchronously.
func (p *Page) WaitForNetworkIdle(time.Duration) error {
	return nil
}

func withoutDisplayNone(style string) string {
	var kept []string
	for _, decl := range strings.Split(style, ";") {
		compact := strings.ReplaceAll(strings.ToLower(decl), " ", "")
		if compact == "" || compact == "display:none" {
			continue
		}
		kept = append(kept, strings.TrimSpace(decl))
	}
	return strings.Join(kept, "; ")
}
