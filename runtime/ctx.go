package runtime

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/a-h/templ"

	"github.com/vcrobe/hydro/analyzer"
	"github.com/vcrobe/hydro/eval"
	"github.com/vcrobe/hydro/script"
)

// Ctx is the per-render template context handed to Component.Render. It
// carries the ambient request, the tree-wide identifier map, and the
// recorder collecting this component's bindings, handlers and async
// bindings. A Ctx is owned by exactly one render call; child components
// get their own Ctx sharing the same IDMap.
type Ctx struct {
	Request *http.Request

	comp Component
	ids  *IDMap
	rec  *recorder
	err  error
}

// recorder accumulates the live records for one component render.
type recorder struct {
	written  map[string]bool
	seq      int
	slots    map[string]*analyzer.Classification
	bindings []script.Binding
	handlers []script.Handler
	asyncs   []script.AsyncBinding
}

func newRecorder() *recorder {
	return &recorder{
		written: make(map[string]bool),
		slots:   make(map[string]*analyzer.Classification),
	}
}

// token registers a deferred slot and returns its unique placeholder
// text. The token survives HTML parsing unchanged in both attribute and
// text positions.
func (r *recorder) token(slot *analyzer.Classification) string {
	t := fmt.Sprintf("__hydro_%d__", r.seq)
	r.seq++
	r.slots[t] = slot
	return t
}

// tokenPattern finds placeholder tokens during the resolution passes.
var tokenPattern = regexp.MustCompile(`__hydro_\d+__`)

// attrTailPattern matches when assembled markup ends in an attribute
// assignment, i.e. the next value lands in attribute position.
var attrTailPattern = regexp.MustCompile(`([a-zA-Z_@][-\w:]*)\s*=\s*(["']?)$`)

// Query returns a query parameter from the ambient request, or "".
func (c *Ctx) Query(name string) string {
	if c.Request == nil {
		return ""
	}
	return c.Request.URL.Query().Get(name)
}

func (c *Ctx) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Html executes one template: static segments are kept as-is, and every
// ${...} interpolation is dispatched on its classification. Event slots
// and reactive reads become placeholder tokens resolved after the full
// markup is parsed; async slots emit their anchor immediately; everything
// else is evaluated and inlined here.
func (c *Ctx) Html(tpl string) SafeHTML {
	if c.err != nil {
		return ""
	}
	a, err := analyzer.For(tpl)
	if err != nil {
		c.fail(err)
		return ""
	}
	for w := range a.Written {
		c.rec.written[w] = true
	}

	parts := []string{a.Statics[0]}
	for i, slot := range a.Slots {
		next := c.emitSlot(&parts, slot, a.Statics[i+1])
		parts = append(parts, next)
	}
	return SafeHTML(strings.Join(parts, ""))
}

// emitSlot appends the markup for one interpolation. It receives the
// following static segment and returns it, possibly trimmed (falsy
// attribute removal swallows the closing quote).
func (c *Ctx) emitSlot(parts *[]string, slot *analyzer.Classification, next string) string {
	switch {
	case slot.IsAsync:
		id := c.ids.Alloc()
		*parts = append(*parts, fmt.Sprintf(`<span %s="%s">Loading...</span>`, script.IDAttr, id))
		c.rec.asyncs = append(c.rec.asyncs, script.AsyncBinding{
			ID:            id,
			PromiseSource: slot.PromiseSource,
			ThenCallback:  slot.ThenCallback,
			CatchCallback: slot.CatchCallback,
		})
		return next

	case slot.IsEvent || intersects(slot.Signals, c.rec.written):
		*parts = append(*parts, c.rec.token(slot))
		return next
	}

	value, err := eval.Value(slot.Node, c.comp)
	if err != nil {
		c.fail(err)
		return next
	}
	return c.emitValue(parts, slot, value, next)
}

func (c *Ctx) emitValue(parts *[]string, slot *analyzer.Classification, value any, next string) string {
	switch v := value.(type) {
	case SafeHTML:
		*parts = append(*parts, string(v))
		return next
	case Component:
		out, err := RenderComponent(v, c.Request, c.ids)
		if err != nil {
			c.fail(err)
			return next
		}
		*parts = append(*parts, string(out))
		return next
	case templ.Component:
		out, err := c.renderTempl(v)
		if err != nil {
			c.fail(err)
			return next
		}
		*parts = append(*parts, out)
		return next
	case eval.Closure:
		*parts = append(*parts, html.EscapeString(slot.Source))
		return next
	case nil:
		return c.emitFalsy(parts, "", next)
	case bool:
		if !v {
			return c.emitFalsy(parts, "false", next)
		}
	case []any:
		for _, item := range v {
			c.emitItem(parts, item)
		}
		return next
	}

	if items, ok := sliceItems(value); ok {
		for _, item := range items {
			c.emitItem(parts, item)
		}
		return next
	}

	return c.emitPlain(parts, eval.Display(value), next)
}

// emitItem renders one element of an interpolated sequence. Falsy items
// contribute nothing.
func (c *Ctx) emitItem(parts *[]string, item any) {
	switch v := item.(type) {
	case nil:
		return
	case bool:
		if !v {
			return
		}
	case SafeHTML:
		*parts = append(*parts, string(v))
		return
	case Component:
		out, err := RenderComponent(v, c.Request, c.ids)
		if err != nil {
			c.fail(err)
			return
		}
		*parts = append(*parts, string(out))
		return
	case templ.Component:
		out, err := c.renderTempl(v)
		if err != nil {
			c.fail(err)
			return
		}
		*parts = append(*parts, out)
		return
	}
	*parts = append(*parts, html.EscapeString(eval.Display(item)))
}

// emitFalsy handles false/null in attribute position by removing the
// pending attribute assignment; in text position the display text is
// inlined instead.
func (c *Ctx) emitFalsy(parts *[]string, display string, next string) string {
	tail := (*parts)[len(*parts)-1]
	if m := attrTailPattern.FindStringSubmatchIndex(tail); m != nil {
		quote := tail[m[4]:m[5]]
		(*parts)[len(*parts)-1] = tail[:m[0]]
		if quote != "" && strings.HasPrefix(next, quote) {
			next = next[1:]
		}
		return next
	}
	*parts = append(*parts, html.EscapeString(display))
	return next
}

// emitPlain inlines an escaped scalar, adding quotes when the value sits
// in an unquoted attribute position.
func (c *Ctx) emitPlain(parts *[]string, display string, next string) string {
	tail := (*parts)[len(*parts)-1]
	escaped := html.EscapeString(display)
	if m := attrTailPattern.FindStringSubmatch(tail); m != nil && m[2] == "" {
		*parts = append(*parts, `"`+escaped+`"`)
		return next
	}
	*parts = append(*parts, escaped)
	return next
}

func (c *Ctx) renderTempl(tc templ.Component) (string, error) {
	ctx := context.Background()
	if c.Request != nil {
		ctx = c.Request.Context()
	}
	var buf strings.Builder
	if err := tc.Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("runtime: templ component: %w", err)
	}
	return buf.String(), nil
}

// sliceItems reports value as a generic item sequence. Strings and byte
// slices stay scalar.
func sliceItems(value any) ([]any, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func intersects(signals []string, written map[string]bool) bool {
	for _, s := range signals {
		if written[s] {
			return true
		}
	}
	return false
}
