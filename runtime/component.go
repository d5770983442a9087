// Package runtime is the render engine: it executes component templates,
// stamps stable element identifiers, records bindings, handlers and async
// bindings, and stitches the generated hydration script onto the markup.
package runtime

// SafeHTML is markup that has already been rendered and escaped. Values
// of this type are spliced into templates verbatim; everything else is
// escaped.
type SafeHTML string

// Component is anything that can render itself. The engine is the sole
// producer of the *Ctx passed in; components call ctx.Html with their
// template and return the result.
type Component interface {
	Render(ctx *Ctx) SafeHTML
}
