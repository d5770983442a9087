package script

import (
	"strings"
	"testing"
)

type counterState struct {
	Count int
	Step  int
	Label string
}

// TestGenerate_NoRecords_EmptyScript verifies a fully static render gets
// no script at all.
func TestGenerate_NoRecords_EmptyScript(t *testing.T) {
	// Act
	out, err := Generate(&counterState{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	// Assert
	if out != "" {
		t.Errorf("Expected empty script, got %q", out)
	}
}

// TestGenerate_BindingAndHandler_EmitsStateSelectorsUpdateListener
// verifies the four sections of a live script and the this. rewrite.
func TestGenerate_BindingAndHandler_EmitsStateSelectorsUpdateListener(t *testing.T) {
	// Arrange
	inst := &counterState{Count: 4, Step: 2}
	bindings := []Binding{
		{ID: "_0", Signals: []string{"count"}, Source: "this.count"},
	}
	handlers := []Handler{
		{ID: "_1", Event: "click", Source: "this.count += this.step", Signals: []string{"count", "step"}, Writes: []string{"count"}},
	}

	// Act
	out, err := Generate(inst, bindings, handlers, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	// Assert: state declarations seeded from the instance
	for _, want := range []string{"let count = 4;", "let step = 2;"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected script to contain %q\nscript:\n%s", want, out)
		}
	}

	// Assert: element lookups by stable identifier
	if !strings.Contains(out, `const _0 = document.querySelector('[data-hydro="_0"]');`) {
		t.Errorf("Missing selector for _0\nscript:\n%s", out)
	}
	if !strings.Contains(out, `const _1 = document.querySelector('[data-hydro="_1"]');`) {
		t.Errorf("Missing selector for _1\nscript:\n%s", out)
	}

	// Assert: update routine rewrites this.count to the local
	if !strings.Contains(out, "_0.textContent = (count);") {
		t.Errorf("Missing textContent update\nscript:\n%s", out)
	}

	// Assert: listener runs the body then update()
	if !strings.Contains(out, `_1.addEventListener("click", () => { count += step; update(); });`) {
		t.Errorf("Missing event listener\nscript:\n%s", out)
	}

	// Assert: the whole block is an IIFE inside a script element
	if !strings.HasPrefix(out, "<script>\n(() => {") || !strings.HasSuffix(out, "})();\n</script>") {
		t.Errorf("Script not wrapped as expected\nscript:\n%s", out)
	}
}

// TestGenerate_AttributeBinding_UsesSetAttribute verifies attribute
// bindings update via setAttribute rather than textContent.
func TestGenerate_AttributeBinding_UsesSetAttribute(t *testing.T) {
	// Arrange
	bindings := []Binding{
		{ID: "_2", Signals: []string{"label"}, Source: "this.label", Attribute: "title"},
	}

	// Act
	out, err := Generate(&counterState{Label: "hi"}, bindings, nil, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	// Assert
	if !strings.Contains(out, `_2.setAttribute("title", (label));`) {
		t.Errorf("Missing setAttribute update\nscript:\n%s", out)
	}
}

// TestGenerate_AsyncBinding_ReissuesChainWithUnwrap verifies the promise
// chain is re-issued and routed into the anchor element.
func TestGenerate_AsyncBinding_ReissuesChainWithUnwrap(t *testing.T) {
	// Arrange
	asyncs := []AsyncBinding{
		{
			ID:            "_3",
			PromiseSource: "fetch('/api')",
			ThenCallback:  "r => r.text()",
			CatchCallback: "e => 'failed'",
		},
	}

	// Act
	out, err := Generate(&counterState{}, nil, nil, asyncs)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	// Assert
	if !strings.Contains(out, "const __unwrap = (v) =>") {
		t.Errorf("Missing unwrap helper\nscript:\n%s", out)
	}
	want := "fetch('/api').then(r => r.text()).then((__v) => { _3.innerHTML = __unwrap(__v); }).catch((__e) => { _3.innerHTML = __unwrap((e => 'failed')(__e)); });"
	if !strings.Contains(out, want) {
		t.Errorf("Expected chain line %q\nscript:\n%s", want, out)
	}
	if strings.Contains(out, "const update") {
		t.Errorf("Async-only script must not declare update\nscript:\n%s", out)
	}
}

// TestGenerate_SharedSignal_DeclaredOnce verifies duplicate signal names
// across records collapse to one declaration.
func TestGenerate_SharedSignal_DeclaredOnce(t *testing.T) {
	// Arrange
	bindings := []Binding{
		{ID: "_0", Signals: []string{"count"}, Source: "this.count"},
		{ID: "_1", Signals: []string{"count"}, Source: "this.count * 2"},
	}

	// Act
	out, err := Generate(&counterState{Count: 1}, bindings, nil, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	// Assert
	if got := strings.Count(out, "let count ="); got != 1 {
		t.Errorf("Expected exactly one declaration of count, got %d\nscript:\n%s", got, out)
	}
}

// TestGenerate_UnknownSignal_ReturnsError verifies a signal without a
// matching field fails generation.
func TestGenerate_UnknownSignal_ReturnsError(t *testing.T) {
	// Arrange
	bindings := []Binding{{ID: "_0", Signals: []string{"missing"}, Source: "this.missing"}}

	// Act
	_, err := Generate(&counterState{}, bindings, nil, nil)

	// Assert
	if err == nil {
		t.Fatal("Expected error for unknown signal, got nil")
	}
}
