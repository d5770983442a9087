// Package analyzer performs the static analysis half of the hydration
// pipeline: it splits a render template into static segments and
// interpolation slots, parses each slot with the expression grammar, and
// classifies every slot as a plain value, a state read, an event handler
// or an asynchronous chain. The runtime package consumes the resulting
// records to decide what gets inlined, what gets a stable element
// identifier, and what ends up in the generated client script.
package analyzer

import (
	"fmt"
	"regexp"

	"github.com/vcrobe/hydro/expr"
)

// Classification describes one interpolation slot. Slots are immutable
// once computed and positionally aligned with the template's ${...}
// interpolations in document order.
type Classification struct {
	// Signals lists every own-instance field read anywhere inside the
	// expression, first path segment only (this.items.length reads
	// "items").
	Signals []string

	// Writes lists the subset of fields that are assignment or ++/--
	// targets inside this same expression.
	Writes []string

	IsFunction bool
	IsEvent    bool
	EventName  string // the matched attribute name, e.g. "onclick"

	// Source is the exact source text of the whole expression.
	Source string

	// BodySource is the function body text, present only for functions.
	BodySource string

	IsAsync       bool
	PromiseSource string
	ThenCallback  string
	CatchCallback string

	// Node is the parsed expression, used for server-side evaluation.
	Node expr.Node
}

// Analysis is the full analysis of one render template.
type Analysis struct {
	// Statics are the literal text segments; len(Statics) == len(Slots)+1.
	Statics []string

	// Slots holds one classification per interpolation, in order.
	Slots []*Classification

	// Written is the union of Writes across all slots. A read is reactive
	// iff its field appears here.
	Written map[string]bool
}

// eventAttrPattern matches when the static text immediately preceding an
// interpolation ends with an event attribute assignment like `onclick=`
// or `oninput="`. The left anchor keeps attribute names that merely
// contain "on", like data-online, from matching.
var eventAttrPattern = regexp.MustCompile(`(?:^|[\s"'])(on\w+)\s*=\s*["']?$`)

// Analyze splits and classifies a render template. It is a pure function
// of the template text; an unparsable slot fails the whole analysis and
// no partial result is returned.
func Analyze(tpl string) (*Analysis, error) {
	statics, sources, err := splitTemplate(tpl)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Statics: statics,
		Written: make(map[string]bool),
	}
	for i, src := range sources {
		node, err := expr.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("analyzer: slot %d: %w", i, err)
		}
		c := classify(src, node, statics[i])
		a.Slots = append(a.Slots, c)
		for _, w := range c.Writes {
			a.Written[w] = true
		}
	}
	return a, nil
}

func classify(src string, node expr.Node, precedingStatic string) *Classification {
	c := &Classification{
		Source: expr.Source(src, node),
		Node:   node,
	}

	// Async detection runs first and short-circuits signal collection
	// for the slot: the chain is re-issued verbatim on the client, never
	// evaluated on the server.
	if promise, thenCb, catchCb, ok := matchAsyncChain(node); ok {
		c.IsAsync = true
		c.PromiseSource = expr.Source(src, promise)
		c.ThenCallback = expr.Source(src, thenCb)
		if catchCb != nil {
			c.CatchCallback = expr.Source(src, catchCb)
		}
		return c
	}

	c.Signals, c.Writes = collectSignals(node)

	if arrow, ok := node.(*expr.Arrow); ok {
		c.IsFunction = true
		c.BodySource = src[arrow.BodySpan.Start:arrow.BodySpan.End]
		if m := eventAttrPattern.FindStringSubmatch(precedingStatic); m != nil {
			c.IsEvent = true
			c.EventName = m[1]
		}
	}
	return c
}

// matchAsyncChain recognizes receiver.then(fn) optionally wrapped by
// .catch(fn). The receiver may itself be an arbitrary chain.
func matchAsyncChain(node expr.Node) (promise expr.Node, thenCb, catchCb expr.Node, ok bool) {
	call, isCall := node.(*expr.Call)
	if !isCall || len(call.Args) != 1 {
		return nil, nil, nil, false
	}
	member, isMember := call.Callee.(*expr.Member)
	if !isMember {
		return nil, nil, nil, false
	}

	if member.Name == "catch" {
		catchCb = call.Args[0]
		inner, isInner := member.Obj.(*expr.Call)
		if !isInner || len(inner.Args) != 1 {
			return nil, nil, nil, false
		}
		innerMember, isInnerMember := inner.Callee.(*expr.Member)
		if !isInnerMember || innerMember.Name != "then" {
			return nil, nil, nil, false
		}
		return innerMember.Obj, inner.Args[0], catchCb, true
	}

	if member.Name == "then" {
		return member.Obj, call.Args[0], nil, true
	}
	return nil, nil, nil, false
}

// collectSignals walks the expression and records every this-rooted field
// access as a signal read, and additionally as a write when it is the
// target of ++/-- or an assignment. Duplicates are kept; they are harmless
// downstream.
func collectSignals(node expr.Node) (signals, writes []string) {
	expr.Walk(node, func(n expr.Node) bool {
		switch t := n.(type) {
		case *expr.Member:
			if _, rootedAtThis := t.Obj.(*expr.This); rootedAtThis {
				signals = append(signals, t.Name)
			}
		case *expr.Update:
			if name, ok := thisField(t.X); ok {
				writes = append(writes, name)
			}
		case *expr.Assign:
			if name, ok := thisField(t.Target); ok {
				writes = append(writes, name)
			}
		}
		return true
	})
	return signals, writes
}

// thisField returns the field name when node is exactly this.<name>.
func thisField(node expr.Node) (string, bool) {
	member, ok := node.(*expr.Member)
	if !ok {
		return "", false
	}
	if _, rootedAtThis := member.Obj.(*expr.This); !rootedAtThis {
		return "", false
	}
	return member.Name, true
}
