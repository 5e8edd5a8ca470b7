// Package browser defines the narrow driver surface page objects are written
// against, and adapts playwright-go to it.
package browser

import (
	"errors"
	"time"
)

// State is an element state a locator can be waited for.
type State string

// Element states
const (
	StateVisible  State = "visible"
	StateHidden   State = "hidden"
	StateAttached State = "attached"
	StateDetached State = "detached"
)

// Driver errors
var (
	// ErrTimeout marks a wait or action that did not complete before its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrStrictMode marks a single-element action on a locator matching several elements.
	ErrStrictMode = errors.New("strict mode violation")
)

// Page is one browser tab.
type Page interface {
	Goto(url string) error
	URL() string
	Title() (string, error)
	Locator(selector string) Locator
	// WaitForURL waits until the current URL equals url.
	WaitForURL(url string, timeout time.Duration) error
	WaitForNetworkIdle(timeout time.Duration) error
}

// Locator lazily references the elements matching a selector chain.
// Nothing is resolved until an action or query runs.
type Locator interface {
	Locator(selector string) Locator
	Nth(index int) Locator
	First() Locator
	All() ([]Locator, error)
	Count() (int, error)

	InnerText() (string, error)
	GetAttribute(name string) (string, error)
	InputValue() (string, error)
	IsVisible() (bool, error)

	Click() error
	Hover() error
	Fill(value string) error
	Clear() error
	PressSequentially(text string) error

	// WaitFor waits until the element reaches state.
	WaitFor(state State, timeout time.Duration) error
	// WaitForText waits until the element's text equals text.
	WaitForText(text string, timeout time.Duration) error
}

// IsTimeout reports whether err is a driver timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
