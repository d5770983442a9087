package eval

import (
	"strings"
	"testing"

	"github.com/vcrobe/hydro/expr"
)

type profile struct {
	Name   string
	Visits int
	Tags   []string
	Active bool
}

func (p *profile) Shout() string {
	return strings.ToUpper(p.Name)
}

func (p *profile) Repeat(s string, n int) string {
	return strings.Repeat(s, n)
}

func mustParse(t *testing.T, src string) expr.Node {
	t.Helper()
	node, err := expr.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", src, err)
	}
	return node
}

// TestValue_FieldRead_MatchesLowercaseSpelling verifies this.name reaches
// the exported Name field.
func TestValue_FieldRead_MatchesLowercaseSpelling(t *testing.T) {
	// Arrange
	inst := &profile{Name: "ada"}

	// Act
	got, err := Value(mustParse(t, "this.name"), inst)
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	// Assert
	if got != "ada" {
		t.Errorf("Expected \"ada\", got %v", got)
	}
}

// TestValue_LengthFallback_CountsSliceElements verifies the .length
// convenience read.
func TestValue_LengthFallback_CountsSliceElements(t *testing.T) {
	// Arrange
	inst := &profile{Tags: []string{"go", "web"}}

	// Act
	got, err := Value(mustParse(t, "this.tags.length"), inst)
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	// Assert
	if got != float64(2) {
		t.Errorf("Expected 2, got %v", got)
	}
}

// TestValue_MethodCall_InvokesWithConvertedArgs verifies method dispatch
// and numeric argument conversion.
func TestValue_MethodCall_InvokesWithConvertedArgs(t *testing.T) {
	// Arrange
	inst := &profile{Name: "ada"}

	// Act
	shouted, err := Value(mustParse(t, "this.shout()"), inst)
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}
	repeated, err := Value(mustParse(t, "this.repeat('ab', 3)"), inst)
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	// Assert
	if shouted != "ADA" {
		t.Errorf("Expected \"ADA\", got %v", shouted)
	}
	if repeated != "ababab" {
		t.Errorf("Expected \"ababab\", got %v", repeated)
	}
}

// TestValue_Conditional_PicksBranchByTruthiness covers the ternary and
// script-style truthiness of numbers.
func TestValue_Conditional_PicksBranchByTruthiness(t *testing.T) {
	// Arrange
	inst := &profile{Visits: 0}

	// Act
	got, err := Value(mustParse(t, "this.visits ? 'returning' : 'new'"), inst)
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	// Assert
	if got != "new" {
		t.Errorf("Expected \"new\", got %v", got)
	}
}

// TestValue_PlusOperator_ConcatenatesWhenEitherSideIsString verifies the
// script-style + overload.
func TestValue_PlusOperator_ConcatenatesWhenEitherSideIsString(t *testing.T) {
	// Arrange
	inst := &profile{Name: "ada", Visits: 3}

	// Act
	concat, err := Value(mustParse(t, "this.name + '!'"), inst)
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}
	sum, err := Value(mustParse(t, "this.visits + 2"), inst)
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	// Assert
	if concat != "ada!" {
		t.Errorf("Expected \"ada!\", got %v", concat)
	}
	if sum != float64(5) {
		t.Errorf("Expected 5, got %v", sum)
	}
}

// TestValue_PostfixIncrement_MutatesFieldReturnsOld verifies update
// expressions mutate the live instance.
func TestValue_PostfixIncrement_MutatesFieldReturnsOld(t *testing.T) {
	// Arrange
	inst := &profile{Visits: 7}

	// Act
	got, err := Value(mustParse(t, "this.visits++"), inst)
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	// Assert
	if got != float64(7) {
		t.Errorf("Expected old value 7, got %v", got)
	}
	if inst.Visits != 8 {
		t.Errorf("Expected field incremented to 8, got %d", inst.Visits)
	}
}

// TestValue_LogicalOperators_ShortCircuit verifies && and || return the
// deciding operand.
func TestValue_LogicalOperators_ShortCircuit(t *testing.T) {
	// Arrange
	inst := &profile{Name: "", Active: true}

	// Act
	orResult, err := Value(mustParse(t, "this.name || 'anonymous'"), inst)
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}
	andResult, err := Value(mustParse(t, "this.active && this.name"), inst)
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	// Assert
	if orResult != "anonymous" {
		t.Errorf("Expected \"anonymous\", got %v", orResult)
	}
	if andResult != "" {
		t.Errorf("Expected empty string, got %v", andResult)
	}
}

// TestValue_LooseEquality_CoercesLikeScript verifies == and != follow
// the same coercions as the other operators: string-biased comparison
// when either side is a string, numeric otherwise, null only null.
func TestValue_LooseEquality_CoercesLikeScript(t *testing.T) {
	// Arrange
	inst := &profile{Name: "ada", Visits: 5}

	cases := []struct {
		src  string
		want bool
	}{
		{"this.name == 'ada'", true},
		{"this.name != 'ada'", false},
		{"this.visits == 5", true},
		{"this.visits == '5'", true},
		{"this.name == 0", false},
		{"this.visits != 3", true},
		{"null == null", true},
		{"this.name == null", false},
	}
	for _, c := range cases {
		// Act
		got, err := Value(mustParse(t, c.src), inst)
		if err != nil {
			t.Fatalf("Value(%q) returned error: %v", c.src, err)
		}

		// Assert
		if got != c.want {
			t.Errorf("Value(%q): expected %v, got %v", c.src, c.want, got)
		}
	}
}

// TestValue_Modulo_ComputesRemainderAndRejectsZeroDivisor verifies % on
// live fields, including the zero-valued default, errors instead of
// panicking the render.
func TestValue_Modulo_ComputesRemainderAndRejectsZeroDivisor(t *testing.T) {
	// Arrange
	inst := &profile{Visits: 10}

	// Act
	got, err := Value(mustParse(t, "this.visits % 3"), inst)
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	// Assert
	if got != float64(1) {
		t.Errorf("Expected 1, got %v", got)
	}

	// Act: divisor comes from a zero-valued field
	zero := &profile{Visits: 0}
	_, err = Value(mustParse(t, "10 % this.visits"), zero)

	// Assert
	if err == nil {
		t.Fatal("Expected error for modulo by zero, got nil")
	}
}

// TestValue_Arrow_ReturnsClosureSentinel verifies lambdas are not
// executed on the server.
func TestValue_Arrow_ReturnsClosureSentinel(t *testing.T) {
	// Act
	got, err := Value(mustParse(t, "() => this.visits++"), &profile{})
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	// Assert
	if _, ok := got.(Closure); !ok {
		t.Errorf("Expected Closure, got %T", got)
	}
}

// TestValue_UnknownField_ReturnsError verifies missing properties fail
// loudly instead of rendering garbage.
func TestValue_UnknownField_ReturnsError(t *testing.T) {
	// Act
	_, err := Value(mustParse(t, "this.nonexistent"), &profile{})

	// Assert
	if err == nil {
		t.Fatal("Expected error for unknown field, got nil")
	}
}

// TestDisplay_FormatsLikeClientInterpolation verifies null and float
// formatting match what the browser would show.
func TestDisplay_FormatsLikeClientInterpolation(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{float64(3), "3"},
		{float64(2.5), "2.5"},
		{true, "true"},
		{"text", "text"},
		{42, "42"},
	}
	for _, c := range cases {
		if got := Display(c.in); got != c.want {
			t.Errorf("Display(%v): expected %q, got %q", c.in, c.want, got)
		}
	}
}
