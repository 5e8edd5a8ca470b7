package browsertest

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/themizzi/shopcheck/internal/browser"
)

type step struct {
	selector string
	nth      *int
}

// Locator is a lazy selector chain resolved against the page's current document.
type Locator struct {
	page  *Page
	steps []step
}

var _ browser.Locator = (*Locator)(nil)

func (l *Locator) with(s step) *Locator {
	steps := make([]step, len(l.steps), len(l.steps)+1)
	copy(steps, l.steps)
	return &Locator{page: l.page, steps: append(steps, s)}
}

// String describes the chain in playwright's notation.
func (l *Locator) String() string {
	parts := make([]string, 0, len(l.steps))
	for _, s := range l.steps {
		if s.nth != nil {
			parts = append(parts, "nth="+strconv.Itoa(*s.nth))
			continue
		}
		parts = append(parts, s.selector)
	}
	return strings.Join(parts, " >> ")
}

func (l *Locator) resolve() *goquery.Selection {
	sel := l.page.doc.Selection
	for _, s := range l.steps {
		if s.nth != nil {
			sel = sel.Eq(*s.nth)
			continue
		}
		sel = sel.Find(s.selector)
	}
	return sel
}

// single resolves exactly one element, as playwright's strict mode requires.
func (l *Locator) single(action string) (*goquery.Selection, error) {
	sel := l.resolve()
	switch sel.Length() {
	case 0:
		return nil, fmt.Errorf("%w: %s: waiting for locator %s", browser.ErrTimeout, action, l)
	case 1:
		return sel, nil
	default:
		return nil, fmt.Errorf("%w: %s: locator %s resolved to %d elements", browser.ErrStrictMode, action, l, sel.Length())
	}
}

// actionable resolves one visible element.
func (l *Locator) actionable(action string) (*goquery.Selection, error) {
	el, err := l.single(action)
	if err != nil {
		return nil, err
	}
	if !visible(el) {
		return nil, fmt.Errorf("%w: %s: element %s is not visible", browser.ErrTimeout, action, l)
	}
	return el, nil
}

func (l *Locator) Locator(selector string) browser.Locator {
	return l.with(step{selector: selector})
}

func (l *Locator) Nth(index int) browser.Locator {
	return l.with(step{nth: &index})
}

func (l *Locator) First() browser.Locator {
	return l.Nth(0)
}

func (l *Locator) All() ([]browser.Locator, error) {
	n := l.resolve().Length()
	out := make([]browser.Locator, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, l.Nth(i))
	}
	return out, nil
}

func (l *Locator) Count() (int, error) {
	return l.resolve().Length(), nil
}

func (l *Locator) InnerText() (string, error) {
	el, err := l.single("inner text")
	if err != nil {
		return "", err
	}
	return innerText(el), nil
}

func (l *Locator) GetAttribute(name string) (string, error) {
	el, err := l.single("get attribute")
	if err != nil {
		return "", err
	}
	return el.AttrOr(name, ""), nil
}

func (l *Locator) InputValue() (string, error) {
	el, err := l.single("input value")
	if err != nil {
		return "", err
	}
	if !isFormField(el) {
		return "", fmt.Errorf("input value: %s is not an input, textarea or select element", l)
	}
	if goquery.NodeName(el) == "textarea" {
		return el.Text(), nil
	}
	return el.AttrOr("value", ""), nil
}

func (l *Locator) IsVisible() (bool, error) {
	sel := l.resolve()
	switch sel.Length() {
	case 0:
		return false, nil
	case 1:
		return visible(sel), nil
	default:
		return false, fmt.Errorf("%w: is visible: locator %s resolved to %d elements", browser.ErrStrictMode, l, sel.Length())
	}
}

// Click runs matching hooks; without one, links navigate and submit buttons submit their form.
func (l *Locator) Click() error {
	el, err := l.actionable("click")
	if err != nil {
		return err
	}
	if handled, err := l.page.runHooks(l.page.click, el); handled {
		return err
	}

	switch goquery.NodeName(el) {
	case "a":
		href := strings.TrimSpace(el.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return nil
		}
		return l.page.Visit(http.MethodGet, href, nil)
	case "button", "input":
		kind := strings.ToLower(el.AttrOr("type", ""))
		if kind == "" && goquery.NodeName(el) == "button" {
			kind = "submit"
		}
		if kind != "submit" {
			return nil
		}
		form := el.Closest("form")
		if form.Length() == 0 {
			return nil
		}
		return l.page.submit(form, el)
	}
	return nil
}

func (l *Locator) Hover() error {
	el, err := l.actionable("hover")
	if err != nil {
		return err
	}
	l.page.hovered = el
	_, err = l.page.runHooks(l.page.hover, el)
	return err
}

func (l *Locator) Fill(value string) error {
	el, err := l.actionable("fill")
	if err != nil {
		return err
	}
	if !isFormField(el) {
		return fmt.Errorf("fill: %s is not an input, textarea or select element", l)
	}
	if goquery.NodeName(el) == "input" && strings.EqualFold(el.AttrOr("type", ""), "number") {
		if _, err := strconv.ParseFloat(value, 64); err != nil && value != "" {
			return fmt.Errorf("fill: cannot type text into input[type=number]")
		}
	}
	setValue(el, value)
	return nil
}

func (l *Locator) Clear() error {
	return l.Fill("")
}

// PressSequentially types text key by key; number inputs drop keys they do not accept.
func (l *Locator) PressSequentially(text string) error {
	el, err := l.actionable("press sequentially")
	if err != nil {
		return err
	}
	if !isFormField(el) {
		return fmt.Errorf("press sequentially: %s is not an input or textarea element", l)
	}

	typed := el.AttrOr("value", "") + text
	if goquery.NodeName(el) == "input" && strings.EqualFold(el.AttrOr("type", ""), "number") {
		typed = numberInputValue(typed)
	}
	setValue(el, typed)
	return nil
}

func (l *Locator) WaitFor(state browser.State, timeout time.Duration) error {
	sel := l.resolve()
	if sel.Length() > 1 {
		return fmt.Errorf("%w: wait for %s: locator %s resolved to %d elements", browser.ErrStrictMode, state, l, sel.Length())
	}

	var ok bool
	switch state {
	case browser.StateVisible:
		ok = sel.Length() == 1 && visible(sel)
	case browser.StateHidden:
		ok = sel.Length() == 0 || !visible(sel)
	case browser.StateAttached:
		ok = sel.Length() == 1
	case browser.StateDetached:
		ok = sel.Length() == 0
	default:
		return fmt.Errorf("unknown element state %q", state)
	}
	if !ok {
		return fmt.Errorf("%w: waiting %v for locator %s to be %s", browser.ErrTimeout, timeout, l, state)
	}
	return nil
}

func (l *Locator) WaitForText(text string, timeout time.Duration) error {
	el, err := l.single("wait for text")
	if err != nil {
		return err
	}
	if got := innerText(el); got != normalizeSpace(text) {
		return fmt.Errorf("%w: waiting %v for locator %s to have text %q, got %q", browser.ErrTimeout, timeout, l, text, got)
	}
	return nil
}

func (p *Page) runHooks(hooks []hook, el *goquery.Selection) (bool, error) {
	handled := false
	for _, h := range hooks {
		if !el.Is(h.selector) {
			continue
		}
		handled = true
		if err := h.fn(p, el); err != nil {
			return true, err
		}
	}
	return handled, nil
}

func (p *Page) submit(form, submitter *goquery.Selection) error {
	values := url.Values{}
	form.Find("input, textarea, select").Each(func(_ int, field *goquery.Selection) {
		name, ok := field.Attr("name")
		if !ok || name == "" {
			return
		}
		switch strings.ToLower(field.AttrOr("type", "")) {
		case "submit", "button", "image", "reset":
			return
		case "checkbox", "radio":
			if _, checked := field.Attr("checked"); !checked {
				return
			}
		}
		switch goquery.NodeName(field) {
		case "textarea":
			values.Add(name, field.Text())
		case "select":
			option := field.Find("option[selected]").First()
			if option.Length() == 0 {
				option = field.Find("option").First()
			}
			values.Add(name, option.AttrOr("value", option.Text()))
		default:
			values.Add(name, field.AttrOr("value", ""))
		}
	})
	if name, ok := submitter.Attr("name"); ok && name != "" {
		values.Add(name, submitter.AttrOr("value", ""))
	}

	method := strings.ToUpper(form.AttrOr("method", http.MethodGet))
	action := form.AttrOr("action", p.URL())
	if method == http.MethodGet {
		target := p.resolve(action)
		target.RawQuery = values.Encode()
		return p.Visit(method, target.String(), nil)
	}
	return p.Visit(method, action, values)
}

func visible(sel *goquery.Selection) bool {
	if sel.Length() == 0 {
		return false
	}
	for n := sel.Get(0); n != nil; n = n.Parent {
		if n.Type == html.ElementNode && hiddenNode(n) {
			return false
		}
	}
	return true
}

func hiddenNode(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "hidden":
			return true
		case "style":
			style := strings.ReplaceAll(strings.ToLower(attr.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		case "type":
			if n.Data == "input" && strings.EqualFold(attr.Val, "hidden") {
				return true
			}
		}
	}
	return false
}

func isFormField(el *goquery.Selection) bool {
	switch goquery.NodeName(el) {
	case "input", "textarea", "select":
		return true
	}
	return false
}

func setValue(el *goquery.Selection, value string) {
	if goquery.NodeName(el) == "textarea" {
		el.SetText(value)
		return
	}
	el.SetAttr("value", value)
}

// numberInputValue mimics a number input: unaccepted keys are dropped and
// an unparsable remainder reads back as empty.
func numberInputValue(typed string) string {
	kept := strings.Map(func(r rune) rune {
		if strings.ContainsRune("0123456789.-+eE", r) {
			return r
		}
		return -1
	}, typed)
	if _, err := strconv.ParseFloat(kept, 64); err != nil {
		return ""
	}
	return kept
}

// innerText approximates rendered text: hidden descendants, scripts and styles
// are skipped, block boundaries become spaces and whitespace is collapsed.
func innerText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
			if hiddenNode(n) {
				return
			}
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte(' ')
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return normalizeSpace(b.String())
}

var blockElements = map[string]bool{
	"address": true, "article": true, "br": true, "div": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "li": true, "nav": true, "ol": true, "p": true, "section": true,
	"table": true, "td": true, "th": true, "tr": true, "ul": true,
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
