package vm

import (
	"strings"
	"testing"

	"sanscript/internal/compiler"
)

// run compiles and executes source, returning the printed lines (one
// per OpPrint) and the interpretation error, if any.
func run(t *testing.T, source string) ([]string, error) {
	t.Helper()
	fn, errs, ok := compiler.CompileWithErrors(source)
	if !ok {
		t.Fatalf("unexpected compile error for %q: %v", source, errs)
	}

	var out []string
	sanVM := New()
	sanVM.SetOutput(func(s string) { out = append(out, s) })
	err := sanVM.Run(fn)
	return out, err
}

func TestArithmeticPrecedence(t *testing.T) {
	out, err := run(t, "print 1 + 2 * 3;")
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 1 || out[0] != "7" {
		t.Errorf("got %v, want [\"7\"]", out)
	}
}

func TestStringConcatenation(t *testing.T) {
	out, err := run(t, `let a = "ab"; let b = "cd"; print a + b;`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 1 || out[0] != "abcd" {
		t.Errorf("got %v, want [\"abcd\"]", out)
	}
}

func TestFunctionCall(t *testing.T) {
	out, err := run(t, "fn f(x) { return x * x; } print f(5);")
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 1 || out[0] != "25" {
		t.Errorf("got %v, want [\"25\"]", out)
	}
}

func TestWhileLoop(t *testing.T) {
	out, err := run(t, "let a = 0; while (a < 3) { print a; a = a + 1; }")
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	want := []string{"0", "1", "2"}
	if len(out) != len(want) {
		t.Fatalf("got %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, out[i], want[i])
		}
	}
}

func TestAddingNumberAndStringIsRuntimeError(t *testing.T) {
	_, err := run(t, `print 1 + "x";`)
	if err == nil {
		t.Fatal("expected runtime error")
	}
	if !strings.Contains(err.Error(), "Operands must be numbers.") {
		t.Errorf("error = %q, want it to contain %q", err.Error(), "Operands must be numbers.")
	}
}

func TestUndefinedVariableIsRuntimeError(t *testing.T) {
	_, err := run(t, "print undefined;")
	if err == nil {
		t.Fatal("expected runtime error")
	}
	if !strings.Contains(err.Error(), "Undefined variable 'undefined'") {
		t.Errorf("error = %q, want it to contain the undefined-variable message", err.Error())
	}
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, "fn f(x){return x;} print f(1,2);")
	if err == nil {
		t.Fatal("expected runtime error")
	}
	if !strings.Contains(err.Error(), "Expected 1 arguments, but got 2") {
		t.Errorf("error = %q, want it to contain the arity-mismatch message", err.Error())
	}
}

func TestZeroIsFalseyInIf(t *testing.T) {
	out, err := run(t, `if (0) print "a"; else print "b";`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 1 || out[0] != "b" {
		t.Errorf("got %v, want [\"b\"] (0 is falsey)", out)
	}
}

func TestAssignmentIsAnExpression(t *testing.T) {
	out, err := run(t, "let x; print x = 5;")
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 1 || out[0] != "5" {
		t.Errorf("got %v, want [\"5\"] (SetGlobal does not pop)", out)
	}
}

func TestNestedCallDepthBoundary(t *testing.T) {
	// A function that calls itself until a counter reaches 0: rec(255)
	// down to rec(0) is 256 nested calls, the most MAX_FRAMES allows,
	// without writing 256 calls out in the test source itself.
	src := `
		fn rec(n) {
			if (n == 0) { return 0; }
			return rec(n - 1);
		}
		print rec(255);
	`
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected runtime error within frame budget: %v", err)
	}
	if len(out) != 1 || out[0] != "0" {
		t.Errorf("got %v, want [\"0\"]", out)
	}
}

func TestStackOverflowIsRuntimeError(t *testing.T) {
	src := `
		fn rec(n) {
			return rec(n + 1);
		}
		print rec(0);
	`
	_, err := run(t, src)
	if err == nil {
		t.Fatal("expected a stack-overflow runtime error for unbounded recursion")
	}
	if !strings.Contains(err.Error(), "Stack overflow detected") {
		t.Errorf("error = %q, want it to contain the stack-overflow message", err.Error())
	}
}
