package runtime

import (
	"net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vcrobe/hydro/analyzer"
	"github.com/vcrobe/hydro/eval"
	"github.com/vcrobe/hydro/script"
)

// RenderPage renders a component tree to its final markup, including the
// hydration script when the tree has live behavior. The root component
// owns a fresh identifier map, so ids are unique across the whole page.
func RenderPage(comp Component, req *http.Request) (SafeHTML, error) {
	return RenderComponent(comp, req, NewIDMap())
}

// RenderComponent renders one component with an externally owned IDMap.
// Nested components rendered through Ctx share their parent's map and
// arrive here already fully resolved.
func RenderComponent(comp Component, req *http.Request, ids *IDMap) (SafeHTML, error) {
	ctx := &Ctx{Request: req, comp: comp, ids: ids, rec: newRecorder()}
	out := comp.Render(ctx)
	if ctx.err != nil {
		return "", ctx.err
	}
	return resolve(string(out), ctx)
}

// resolve parses the assembled markup and runs the two resolution passes:
// first event attributes, then value placeholders against the final set
// of written signals. Markup without deferred slots is returned verbatim.
func resolve(markup string, ctx *Ctx) (SafeHTML, error) {
	rec := ctx.rec
	if len(rec.slots) == 0 && len(rec.asyncs) == 0 {
		return SafeHTML(markup), nil
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return "", err
	}

	for _, n := range nodes {
		resolveEvents(n, ctx)
	}
	if ctx.err != nil {
		return "", ctx.err
	}
	for _, n := range nodes {
		resolveValues(n, ctx)
	}
	if ctx.err != nil {
		return "", ctx.err
	}

	var buf strings.Builder
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}

	if len(rec.bindings)+len(rec.handlers)+len(rec.asyncs) > 0 {
		js, err := script.Generate(ctx.comp, rec.bindings, rec.handlers, rec.asyncs)
		if err != nil {
			return "", err
		}
		buf.WriteString("\n")
		buf.WriteString(js)
	}
	return SafeHTML(buf.String()), nil
}

// resolveEvents is the first pass. Attributes whose whole value is an
// event placeholder are stripped from the element; the element is stamped
// with its stable identifier and a handler record is appended. Writes
// performed by handlers widen the written set before the value pass runs.
func resolveEvents(n *html.Node, ctx *Ctx) {
	if n.Type == html.ElementNode {
		var events []*analyzer.Classification
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			slot := ctx.rec.slots[a.Val]
			if slot != nil && slot.IsEvent {
				events = append(events, slot)
				continue
			}
			kept = append(kept, a)
		}
		n.Attr = kept
		for _, slot := range events {
			id := ctx.ids.For(n)
			for _, w := range slot.Writes {
				ctx.rec.written[w] = true
			}
			ctx.rec.handlers = append(ctx.rec.handlers, script.Handler{
				ID:      id,
				Event:   strings.TrimPrefix(slot.EventName, "on"),
				Source:  slot.BodySource,
				Signals: slot.Signals,
				Writes:  slot.Writes,
			})
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		resolveEvents(c, ctx)
	}
}

// resolveValues is the second pass. Every remaining placeholder is
// evaluated against the component instance; occurrences whose signals
// intersect the final written set additionally stamp their element and
// record a binding.
func resolveValues(n *html.Node, ctx *Ctx) {
	switch n.Type {
	case html.ElementNode:
		// substitute may stamp the identifier attribute onto this
		// element, growing n.Attr; index instead of holding a pointer.
		for i := 0; i < len(n.Attr); i++ {
			if !tokenPattern.MatchString(n.Attr[i].Val) {
				continue
			}
			n.Attr[i].Val = substitute(n.Attr[i].Val, ctx, n, n.Attr[i].Key)
		}
	case html.TextNode:
		if tokenPattern.MatchString(n.Data) {
			n.Data = substitute(n.Data, ctx, n.Parent, "")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		resolveValues(c, ctx)
	}
}

// substitute replaces every placeholder in text with its evaluated value
// and records bindings for the reactive ones. attr is "" for text nodes.
func substitute(text string, ctx *Ctx, el *html.Node, attr string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		slot := ctx.rec.slots[token]
		if slot == nil {
			return token
		}
		value, err := eval.Value(slot.Node, ctx.comp)
		if err != nil {
			ctx.fail(err)
			return ""
		}
		if intersects(slot.Signals, ctx.rec.written) && el != nil {
			ctx.rec.bindings = append(ctx.rec.bindings, script.Binding{
				ID:        ctx.ids.For(el),
				Signals:   slot.Signals,
				Source:    slot.Source,
				Attribute: attr,
			})
		}
		if _, ok := value.(eval.Closure); ok {
			return slot.Source
		}
		return eval.Display(value)
	})
}
