// Package eval resolves parsed template expressions against a live
// component instance. Field access follows the template's lowercase
// spelling: this.count resolves the exported struct field Count. Arrow
// functions and promise chains are never evaluated here; they belong to
// the generated client script.
package eval

import (
	"fmt"
	"reflect"

	"github.com/vcrobe/hydro/expr"
)

// Closure is the opaque server-side value of an arrow function slot.
// It exists so a function interpolation outside an event attribute can be
// treated as a plain value without crashing the render.
type Closure struct {
	Node *expr.Arrow
}

// Value evaluates node against instance.
func Value(node expr.Node, instance any) (any, error) {
	e := &evaluator{instance: instance}
	return e.eval(node)
}

type evaluator struct {
	instance any
}

func (e *evaluator) eval(node expr.Node) (any, error) {
	switch n := node.(type) {
	case *expr.Literal:
		return n.Value, nil
	case *expr.This:
		return e.instance, nil
	case *expr.Ident:
		return nil, fmt.Errorf("eval: unknown identifier %q", n.Name)
	case *expr.Arrow:
		return Closure{Node: n}, nil
	case *expr.Array:
		out := make([]any, 0, len(n.Elems))
		for _, el := range n.Elems {
			v, err := e.eval(el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case *expr.Member:
		obj, err := e.eval(n.Obj)
		if err != nil {
			return nil, err
		}
		return property(obj, n.Name)
	case *expr.Index:
		return e.index(n)
	case *expr.Call:
		return e.call(n)
	case *expr.Unary:
		return e.unary(n)
	case *expr.Update:
		return e.update(n)
	case *expr.Binary:
		return e.binary(n)
	case *expr.Logical:
		return e.logical(n)
	case *expr.Cond:
		test, err := e.eval(n.Test)
		if err != nil {
			return nil, err
		}
		if Truthy(test) {
			return e.eval(n.Then)
		}
		return e.eval(n.Else)
	case *expr.Assign:
		return e.assign(n)
	}
	return nil, fmt.Errorf("eval: unsupported expression node %T", node)
}

func (e *evaluator) index(n *expr.Index) (any, error) {
	obj, err := e.eval(n.Obj)
	if err != nil {
		return nil, err
	}
	key, err := e.eval(n.Key)
	if err != nil {
		return nil, err
	}
	v := deref(reflect.ValueOf(obj))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		i := int(toNumber(key))
		if i < 0 || i >= v.Len() {
			return nil, nil
		}
		return v.Index(i).Interface(), nil
	case reflect.Map:
		mv := v.MapIndex(reflect.ValueOf(key))
		if !mv.IsValid() {
			return nil, nil
		}
		return mv.Interface(), nil
	case reflect.String:
		return property(obj, fmt.Sprint(key))
	}
	return nil, fmt.Errorf("eval: cannot index value of kind %s", v.Kind())
}

func (e *evaluator) call(n *expr.Call) (any, error) {
	member, ok := n.Callee.(*expr.Member)
	if !ok {
		return nil, fmt.Errorf("eval: only method calls are supported on the server")
	}
	recv, err := e.eval(member.Obj)
	if err != nil {
		return nil, err
	}

	fn, err := method(recv, member.Name)
	if err != nil {
		return nil, err
	}

	args := make([]reflect.Value, 0, len(n.Args))
	for i, a := range n.Args {
		v, err := e.eval(a)
		if err != nil {
			return nil, err
		}
		in := fn.Type().In(i)
		args = append(args, convertArg(v, in))
	}

	results := fn.Call(args)
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return unwrapResult(results[0])
	case 2:
		if errv, ok := results[1].Interface().(error); ok && errv != nil {
			return nil, errv
		}
		return results[0].Interface(), nil
	}
	return nil, fmt.Errorf("eval: method %s has unsupported arity", member.Name)
}

func unwrapResult(v reflect.Value) (any, error) {
	if errv, ok := v.Interface().(error); ok {
		return nil, errv
	}
	return v.Interface(), nil
}

func (e *evaluator) unary(n *expr.Unary) (any, error) {
	x, err := e.eval(n.X)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "!":
		return !Truthy(x), nil
	case "-":
		return -toNumber(x), nil
	case "+":
		return toNumber(x), nil
	}
	return nil, fmt.Errorf("eval: unsupported unary operator %q", n.Op)
}

// update implements ++ and -- on instance fields. The mutation happens on
// the live component, matching client-side semantics for expressions like
// this.count++ in text position.
func (e *evaluator) update(n *expr.Update) (any, error) {
	field, err := e.fieldTarget(n.X)
	if err != nil {
		return nil, err
	}
	old := toNumber(field.Interface())
	delta := 1.0
	if n.Op == "--" {
		delta = -1
	}
	if err := setField(field, old+delta); err != nil {
		return nil, err
	}
	if n.Prefix {
		return old + delta, nil
	}
	return old, nil
}

func (e *evaluator) assign(n *expr.Assign) (any, error) {
	field, err := e.fieldTarget(n.Target)
	if err != nil {
		return nil, err
	}
	value, err := e.eval(n.Value)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "+=":
		cur := field.Interface()
		if isString(cur) || isString(value) {
			value = toString(cur) + toString(value)
		} else {
			value = toNumber(cur) + toNumber(value)
		}
	case "-=":
		value = toNumber(field.Interface()) - toNumber(value)
	}
	if err := setField(field, value); err != nil {
		return nil, err
	}
	return value, nil
}

// fieldTarget resolves this.<name> to an addressable struct field.
func (e *evaluator) fieldTarget(node expr.Node) (reflect.Value, error) {
	member, ok := node.(*expr.Member)
	if !ok {
		return reflect.Value{}, fmt.Errorf("eval: assignment target must be an instance field")
	}
	if _, rootedAtThis := member.Obj.(*expr.This); !rootedAtThis {
		return reflect.Value{}, fmt.Errorf("eval: assignment target must be rooted at this")
	}
	v := reflect.ValueOf(e.instance)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("eval: component must be a pointer to a struct to mutate %q", member.Name)
	}
	field, ok := fieldByTemplateName(v.Elem(), member.Name)
	if !ok {
		return reflect.Value{}, fmt.Errorf("eval: no field matching %q on %T", member.Name, e.instance)
	}
	return field, nil
}

func (e *evaluator) binary(n *expr.Binary) (any, error) {
	l, err := e.eval(n.L)
	if err != nil {
		return nil, err
	}
	r, err := e.eval(n.R)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "+":
		if isString(l) || isString(r) {
			return toString(l) + toString(r), nil
		}
		return toNumber(l) + toNumber(r), nil
	case "-":
		return toNumber(l) - toNumber(r), nil
	case "*":
		return toNumber(l) * toNumber(r), nil
	case "/":
		return toNumber(l) / toNumber(r), nil
	case "%":
		divisor := int64(toNumber(r))
		if divisor == 0 {
			return nil, fmt.Errorf("eval: modulo by zero")
		}
		return float64(int64(toNumber(l)) % divisor), nil
	case "==":
		return looseEqual(l, r), nil
	case "!=":
		return !looseEqual(l, r), nil
	case "<":
		return toNumber(l) < toNumber(r), nil
	case "<=":
		return toNumber(l) <= toNumber(r), nil
	case ">":
		return toNumber(l) > toNumber(r), nil
	case ">=":
		return toNumber(l) >= toNumber(r), nil
	}
	return nil, fmt.Errorf("eval: unsupported binary operator %q", n.Op)
}

// looseEqual applies script-style loose equality. Null equals only null;
// a string operand forces textual comparison; everything else compares
// numerically, matching the coercions used by the other operators.
func looseEqual(l, r any) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	if isString(l) || isString(r) {
		return toString(l) == toString(r)
	}
	return toNumber(l) == toNumber(r)
}

func (e *evaluator) logical(n *expr.Logical) (any, error) {
	l, err := e.eval(n.L)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "&&":
		if !Truthy(l) {
			return l, nil
		}
	case "||":
		if Truthy(l) {
			return l, nil
		}
	case "??":
		if l != nil {
			return l, nil
		}
	}
	return e.eval(n.R)
}
