// Package notify is the process-wide notification surface. It holds a
// single "current notification" slot; every screen renders from it and
// no screen manages its own dialog state.
package notify

import (
	"errors"
	"sync"

	"github.com/queueless/queueless-go/internal/gateway"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
	KindConfirm Kind = "confirm"
)

// ButtonStyle tags how a button should render.
type ButtonStyle string

const (
	StyleDefault     ButtonStyle = "default"
	StyleCancel      ButtonStyle = "cancel"
	StyleDestructive ButtonStyle = "destructive"
)

// Button is one action on a notification.
type Button struct {
	Label   string
	Style   ButtonStyle
	OnPress func()
}

// Notification is the value a renderer displays. Dismissible is false
// only for the session-expired interrupt.
type Notification struct {
	Kind        Kind
	Title       string
	Message     string
	StatusCode  int
	Buttons     []Button
	Dismissible bool
	interrupt   bool
}

// Center owns the notification slot. The last Show wins; there is no
// queue. While the session-expired interrupt is visible every other
// Show is dropped.
type Center struct {
	mu       sync.Mutex
	current  *Notification
	onChange func(*Notification)
}

// NewCenter creates an empty notification center.
func NewCenter() *Center {
	return &Center{}
}

// SetRenderer registers the function called whenever the slot changes.
// It receives nil when the slot empties.
func (c *Center) SetRenderer(fn func(*Notification)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Current returns the visible notification, or nil.
func (c *Center) Current() *Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Show replaces the current notification. When no buttons are given a
// kind-appropriate acknowledgement button is added.
func (c *Center) Show(kind Kind, title, message string, buttons ...Button) {
	c.show(&Notification{
		Kind:        kind,
		Title:       title,
		Message:     message,
		Buttons:     buttons,
		Dismissible: true,
	})
}

// ShowWithStatus is Show carrying a server status code for support
// purposes.
func (c *Center) ShowWithStatus(kind Kind, title, message string, statusCode int, buttons ...Button) {
	c.show(&Notification{
		Kind:        kind,
		Title:       title,
		Message:     message,
		StatusCode:  statusCode,
		Buttons:     buttons,
		Dismissible: true,
	})
}

// ShowConfirm displays a two-button confirmation. Confirm runs
// onConfirm and dismisses; cancel (or a backdrop dismiss) runs
// onCancel when provided and dismisses. style tags the confirm button.
func (c *Center) ShowConfirm(title, message string, onConfirm, onCancel func(), style ButtonStyle) {
	if style == "" {
		style = StyleDefault
	}
	c.show(&Notification{
		Kind:        KindConfirm,
		Title:       title,
		Message:     message,
		Dismissible: true,
		Buttons: []Button{
			{Label: "Cancel", Style: StyleCancel, OnPress: onCancel},
			{Label: "OK", Style: style, OnPress: onConfirm},
		},
	})
}

// ShowError routes an error to the right surface. Session expiry is
// ignored here: the interrupt path owns it and a second dialog would
// fight it.
func (c *Center) ShowError(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, gateway.ErrSessionExpired) {
		return
	}

	var httpErr *gateway.HTTPError
	if errors.As(err, &httpErr) {
		c.ShowWithStatus(KindError, "Request Failed", httpErr.Message, httpErr.StatusCode)
		return
	}
	c.Show(KindError, "Error", err.Error())
}

// SessionExpiredInterrupt replaces whatever is visible with the
// non-dismissible session-expired dialog. Its single action runs the
// supplied cleanup (logout plus navigation reset) and clears the slot.
// Until that happens every other Show is dropped.
func (c *Center) SessionExpiredInterrupt(onAcknowledge func()) {
	n := &Notification{
		Kind:        KindWarning,
		Title:       "Session Expired",
		Message:     "Your session has expired. Please login again.",
		Dismissible: false,
		interrupt:   true,
		Buttons: []Button{
			{Label: "Login", Style: StyleDefault, OnPress: onAcknowledge},
		},
	}

	c.mu.Lock()
	c.current = n
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

// Hide clears the slot unconditionally. Idempotent.
func (c *Center) Hide() {
	c.mu.Lock()
	c.current = nil
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(nil)
	}
}

// Dismiss is the backdrop/back-button path. It is equivalent to
// pressing the cancel button and is a no-op on a non-dismissible
// notification.
func (c *Center) Dismiss() {
	c.mu.Lock()
	n := c.current
	if n == nil || !n.Dismissible {
		c.mu.Unlock()
		return
	}
	c.current = nil
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(nil)
	}

	for _, b := range n.Buttons {
		if b.Style == StyleCancel && b.OnPress != nil {
			b.OnPress()
			return
		}
	}
}

// Press activates button index on the current notification. The slot
// clears before the callback runs, so a callback is invoked at most
// once and may itself show a follow-up notification.
func (c *Center) Press(index int) {
	c.mu.Lock()
	n := c.current
	if n == nil || index < 0 || index >= len(n.Buttons) {
		c.mu.Unlock()
		return
	}
	c.current = nil
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(nil)
	}

	if press := n.Buttons[index].OnPress; press != nil {
		press()
	}
}

// show installs n unless the session-expired interrupt is on screen.
// Default buttons are filled in here.
func (c *Center) show(n *Notification) {
	if len(n.Buttons) == 0 {
		n.Buttons = defaultButtons(n.Kind)
	}

	c.mu.Lock()
	if c.current != nil && c.current.interrupt {
		c.mu.Unlock()
		return
	}
	c.current = n
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

func defaultButtons(kind Kind) []Button {
	switch kind {
	case KindError:
		return []Button{{Label: "Close", Style: StyleCancel}}
	case KindConfirm:
		return []Button{
			{Label: "Cancel", Style: StyleCancel},
			{Label: "OK", Style: StyleDefault},
		}
	default:
		return []Button{{Label: "OK", Style: StyleDefault}}
	}
}
