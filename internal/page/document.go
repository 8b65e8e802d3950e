// Package page models the host page the widget is embedded in: its parsed
// markup and its readiness signal.
package page

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/net/html"
)

// Document is a parsed host page. A Document starts out loading unless it
// was created with Ready.
type Document struct {
	root *html.Node

	mu      sync.Mutex
	loading bool
	pending []func()
}

// Parse reads host page markup. The returned Document is still loading;
// call MarkReady once the host signals readiness.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return &Document{root: root, loading: true}, nil
}

func (d *Document) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// OnReady runs fn when the document becomes ready. If it already is, fn runs
// immediately on the caller's goroutine.
func (d *Document) OnReady(fn func()) {
	d.mu.Lock()
	if !d.loading {
		d.mu.Unlock()
		fn()
		return
	}
	d.pending = append(d.pending, fn)
	d.mu.Unlock()
}

// MarkReady flips the document to ready and runs registered callbacks in
// registration order. Later calls do nothing.
func (d *Document) MarkReady() {
	d.mu.Lock()
	if !d.loading {
		d.mu.Unlock()
		return
	}
	d.loading = false
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// Attr returns the value of attr on the first element, in document order,
// that carries it. found is false when no element has the attribute.
func (d *Document) Attr(attr string) (value string, found bool) {
	if d == nil || d.root == nil {
		return "", false
	}

	var traverse func(*html.Node) bool
	traverse = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == attr {
					value = a.Val
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if traverse(c) {
				return true
			}
		}
		return false
	}

	found = traverse(d.root)
	return value, found
}
