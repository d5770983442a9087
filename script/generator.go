// Package script turns the records collected during a render into the
// client-side hydration script: local state mirrors, element lookups, a
// single update routine, event listeners, and re-issued promise chains.
// Generation is deterministic given identical inputs.
package script

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vcrobe/hydro/eval"
)

// IDAttr is the attribute carrying the stable per-element identifier.
const IDAttr = "data-hydro"

// Binding records that an element's text content or named attribute must
// be recomputed from Source whenever one of Signals changes.
type Binding struct {
	ID        string
	Signals   []string
	Source    string
	Attribute string // empty for text content
}

// Handler records an event listener; after it runs, every binding is
// recomputed.
type Handler struct {
	ID      string
	Event   string // DOM event name without the "on" prefix
	Source  string // the handler body
	Signals []string
	Writes  []string
}

// AsyncBinding records a placeholder element whose content is filled on
// the client once the re-issued promise chain resolves. The server never
// awaits the chain.
type AsyncBinding struct {
	ID            string
	PromiseSource string
	ThenCallback  string
	CatchCallback string // empty when the chain has no catch
}

// Generate produces the inline script block for one component render.
// It returns the empty string when there is nothing to hydrate.
func Generate(instance any, bindings []Binding, handlers []Handler, asyncs []AsyncBinding) (string, error) {
	if len(bindings) == 0 && len(handlers) == 0 && len(asyncs) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("<script>\n(() => {\n")

	for _, name := range signalNames(bindings, handlers) {
		value, ok := eval.Field(instance, name)
		if !ok {
			return "", fmt.Errorf("script: no field matching signal %q on %T", name, instance)
		}
		literal, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("script: signal %q has no literal representation: %w", name, err)
		}
		fmt.Fprintf(&b, "let %s = %s;\n", name, literal)
	}

	for _, id := range elementIDs(bindings, handlers, asyncs) {
		fmt.Fprintf(&b, "const %s = document.querySelector('[%s=%q]');\n", id, IDAttr, id)
	}

	if len(bindings) > 0 || len(handlers) > 0 {
		b.WriteString("const update = () => {\n")
		for _, bind := range bindings {
			if bind.Attribute == "" {
				fmt.Fprintf(&b, "  %s.textContent = (%s);\n", bind.ID, rewrite(bind.Source))
			} else {
				fmt.Fprintf(&b, "  %s.setAttribute(%q, (%s));\n", bind.ID, bind.Attribute, rewrite(bind.Source))
			}
		}
		b.WriteString("};\n")
	}

	for _, h := range handlers {
		body := strings.TrimSpace(rewrite(h.Source))
		if body != "" && !strings.HasSuffix(body, ";") {
			body += ";"
		}
		fmt.Fprintf(&b, "%s.addEventListener(%q, () => { %s update(); });\n", h.ID, h.Event, body)
	}

	if len(asyncs) > 0 {
		b.WriteString("const __unwrap = (v) => (v && v.__html !== undefined) ? v.__html : v;\n")
		for _, a := range asyncs {
			fmt.Fprintf(&b, "%s.then(%s).then((__v) => { %s.innerHTML = __unwrap(__v); })",
				rewrite(a.PromiseSource), rewrite(a.ThenCallback), a.ID)
			if a.CatchCallback != "" {
				fmt.Fprintf(&b, ".catch((__e) => { %s.innerHTML = __unwrap((%s)(__e)); })",
					a.ID, rewrite(a.CatchCallback))
			}
			b.WriteString(";\n")
		}
	}

	b.WriteString("})();\n</script>")
	return b.String(), nil
}

// rewrite strips the instance qualifier so embedded sources reference the
// declared locals. Purely textual: field accesses are always spelled
// "this.<identifier>", and no other construct shares that shape in the
// template grammar.
func rewrite(src string) string {
	return strings.ReplaceAll(src, "this.", "")
}

// signalNames returns the distinct fields referenced by bindings and
// handlers, in first-use order.
func signalNames(bindings []Binding, handlers []Handler) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, b := range bindings {
		for _, s := range b.Signals {
			add(s)
		}
	}
	for _, h := range handlers {
		for _, s := range h.Signals {
			add(s)
		}
		for _, w := range h.Writes {
			add(w)
		}
	}
	return names
}

// elementIDs returns the distinct stable identifiers in first-use order.
func elementIDs(bindings []Binding, handlers []Handler, asyncs []AsyncBinding) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, b := range bindings {
		add(b.ID)
	}
	for _, h := range handlers {
		add(h.ID)
	}
	for _, a := range asyncs {
		add(a.ID)
	}
	return ids
}
