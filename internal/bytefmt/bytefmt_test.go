package bytefmt

import (
	"testing"

	"sanscript/internal/compiler"
	"sanscript/internal/value"
	"sanscript/internal/vm"
)

func TestRoundTripPreservesOutput(t *testing.T) {
	source := `
		fn square(x) { return x * x; }
		let a = "ab";
		let b = "cd";
		print square(5);
		print a + b;
	`

	fn, _, ok := compiler.CompileWithErrors(source)
	if !ok {
		t.Fatalf("unexpected compile error")
	}

	encoded := Serialize(fn)
	decoded, err := Deserialize(encoded)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	originalOut := runFn(t, fn)
	decodedOut := runFn(t, decoded)

	if len(originalOut) != len(decodedOut) {
		t.Fatalf("output length mismatch: original %v, decoded %v", originalOut, decodedOut)
	}
	for i := range originalOut {
		if originalOut[i] != decodedOut[i] {
			t.Errorf("line %d: original %q, decoded %q", i, originalOut[i], decodedOut[i])
		}
	}
}

func runFn(t *testing.T, fn *value.Function) []string {
	t.Helper()
	var out []string
	sanVM := vm.New()
	sanVM.SetOutput(func(s string) { out = append(out, s) })
	if err := sanVM.Run(fn); err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	return out
}
