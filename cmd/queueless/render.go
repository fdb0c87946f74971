package main

import (
	"fmt"
	"strings"

	"github.com/queueless/queueless-go/internal/app"
	"github.com/queueless/queueless-go/internal/notify"
)

// newRenderer returns the terminal renderer for the notification slot.
// Confirm dialogs prompt on stdin; the non-dismissible session-expired
// interrupt prints and acknowledges immediately since a CLI has no
// screen to block.
func newRenderer(a *app.App) func(*notify.Notification) {
	return func(n *notify.Notification) {
		if n == nil {
			return
		}

		tag := strings.ToUpper(string(n.Kind))
		if n.StatusCode != 0 {
			fmt.Printf("[%s] %s: %s (status %d)\n", tag, n.Title, n.Message, n.StatusCode)
		} else {
			fmt.Printf("[%s] %s: %s\n", tag, n.Title, n.Message)
		}

		switch {
		case !n.Dismissible:
			// Session-expired interrupt: the single action runs the
			// logout cleanup and navigation reset.
			a.Notify.Press(0)

		case n.Kind == notify.KindConfirm:
			answer := promptLine(confirmPrompt(n))
			if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
				a.Notify.Press(confirmIndex(n))
			} else {
				a.Notify.Dismiss()
			}
		}
	}
}

func confirmPrompt(n *notify.Notification) string {
	labels := make([]string, 0, len(n.Buttons))
	for _, b := range n.Buttons {
		labels = append(labels, b.Label)
	}
	return fmt.Sprintf("%s [y/N]: ", strings.Join(labels, "/"))
}

// confirmIndex finds the non-cancel button of a confirm notification.
func confirmIndex(n *notify.Notification) int {
	for i, b := range n.Buttons {
		if b.Style != notify.StyleCancel {
			return i
		}
	}
	return len(n.Buttons) - 1
}
