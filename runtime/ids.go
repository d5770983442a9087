package runtime

import (
	"strconv"

	"golang.org/x/net/html"

	"github.com/vcrobe/hydro/script"
)

// IDMap allocates the stable element identifiers for one page render and
// remembers which element already holds one. A single IDMap is created
// per top-level render and threaded by reference into every recursive
// child render, so identifiers stay unique across the whole tree. It is
// owned by exactly one request and never shared across renders.
type IDMap struct {
	next     int
	assigned map[*html.Node]string
}

// NewIDMap creates an empty identifier map.
func NewIDMap() *IDMap {
	return &IDMap{assigned: make(map[*html.Node]string)}
}

// Alloc draws the next identifier from the shared counter without binding
// it to an element. Used for async anchors, which are written into the
// markup before any element tree exists.
func (m *IDMap) Alloc() string {
	id := "_" + strconv.Itoa(m.next)
	m.next++
	return id
}

// For returns the identifier for el, stamping a fresh one onto the
// element on first use. An element receives at most one identifier no
// matter how many bindings or handlers target it.
func (m *IDMap) For(el *html.Node) string {
	if id, ok := m.assigned[el]; ok {
		return id
	}
	for _, a := range el.Attr {
		if a.Key == script.IDAttr {
			m.assigned[el] = a.Val
			return a.Val
		}
	}
	id := m.Alloc()
	el.Attr = append(el.Attr, html.Attribute{Key: script.IDAttr, Val: id})
	m.assigned[el] = id
	return id
}
