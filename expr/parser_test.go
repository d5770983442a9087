package expr

import (
	"testing"
)

// TestParse_MemberChain_ResolvesLeftToRight verifies that this.user.name
// parses as nested member accesses rooted at this.
func TestParse_MemberChain_ResolvesLeftToRight(t *testing.T) {
	// Arrange & Act
	node, err := Parse("this.user.name")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	// Assert: outer member is .name
	outer, ok := node.(*Member)
	if !ok {
		t.Fatalf("Expected *Member, got %T", node)
	}
	if outer.Name != "name" {
		t.Errorf("Expected outer member 'name', got %q", outer.Name)
	}
	inner, ok := outer.Obj.(*Member)
	if !ok {
		t.Fatalf("Expected inner *Member, got %T", outer.Obj)
	}
	if inner.Name != "user" {
		t.Errorf("Expected inner member 'user', got %q", inner.Name)
	}
	if _, ok := inner.Obj.(*This); !ok {
		t.Errorf("Expected chain rooted at this, got %T", inner.Obj)
	}
}

// TestParse_ArrowWithAssignment_BodyIsAssign verifies that event handler
// shapes like () => this.count += 1 parse as an arrow whose body is a
// compound assignment.
func TestParse_ArrowWithAssignment_BodyIsAssign(t *testing.T) {
	// Act
	node, err := Parse("() => this.count += 1")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	// Assert
	arrow, ok := node.(*Arrow)
	if !ok {
		t.Fatalf("Expected *Arrow, got %T", node)
	}
	if len(arrow.Params) != 0 {
		t.Errorf("Expected no params, got %v", arrow.Params)
	}
	if len(arrow.Body) != 1 {
		t.Fatalf("Expected 1 body expression, got %d", len(arrow.Body))
	}
	assign, ok := arrow.Body[0].(*Assign)
	if !ok {
		t.Fatalf("Expected *Assign body, got %T", arrow.Body[0])
	}
	if assign.Op != "+=" {
		t.Errorf("Expected op '+=', got %q", assign.Op)
	}
}

// TestParse_SingleParamArrow_NoParens verifies r => r.text() parses with
// one parameter.
func TestParse_SingleParamArrow_NoParens(t *testing.T) {
	// Act
	node, err := Parse("r => r.text()")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	// Assert
	arrow, ok := node.(*Arrow)
	if !ok {
		t.Fatalf("Expected *Arrow, got %T", node)
	}
	if len(arrow.Params) != 1 || arrow.Params[0] != "r" {
		t.Errorf("Expected params [r], got %v", arrow.Params)
	}
	if _, ok := arrow.Body[0].(*Call); !ok {
		t.Errorf("Expected *Call body, got %T", arrow.Body[0])
	}
}

// TestParse_Conditional_RespectsPrecedence verifies that the ternary
// binds looser than comparison.
func TestParse_Conditional_RespectsPrecedence(t *testing.T) {
	// Act
	node, err := Parse("this.count > 0 ? 'some' : 'none'")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	// Assert
	cond, ok := node.(*Cond)
	if !ok {
		t.Fatalf("Expected *Cond, got %T", node)
	}
	if _, ok := cond.Test.(*Binary); !ok {
		t.Errorf("Expected *Binary test, got %T", cond.Test)
	}
}

// TestParse_StrictEquality_NormalizedToLoose verifies === is treated as ==.
func TestParse_StrictEquality_NormalizedToLoose(t *testing.T) {
	// Act
	node, err := Parse("this.mode === 'dark'")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	// Assert
	bin, ok := node.(*Binary)
	if !ok {
		t.Fatalf("Expected *Binary, got %T", node)
	}
	if bin.Op != "==" {
		t.Errorf("Expected op '==', got %q", bin.Op)
	}
}

// TestSource_ReturnsExactSlice verifies Source reproduces the original
// text of any subexpression.
func TestSource_ReturnsExactSlice(t *testing.T) {
	// Arrange
	src := "fetch('/api').then(r => r.json())"
	node, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	// Act & Assert: whole expression round-trips
	if got := Source(src, node); got != src {
		t.Errorf("Expected source %q, got %q", src, got)
	}

	// Assert: the receiver slices out exactly
	call := node.(*Call)
	member := call.Callee.(*Member)
	if got := Source(src, member.Obj); got != "fetch('/api')" {
		t.Errorf("Expected receiver source \"fetch('/api')\", got %q", got)
	}
}

// TestParse_UnterminatedString_ReturnsError verifies malformed input
// fails instead of producing a partial tree.
func TestParse_UnterminatedString_ReturnsError(t *testing.T) {
	// Act
	_, err := Parse("this.name + 'oops")

	// Assert
	if err == nil {
		t.Fatal("Expected error for unterminated string, got nil")
	}
}
