package value

import "testing"

func TestIsFalsey(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", Nil(), true},
		{"false", Bool(false), true},
		{"true", Bool(true), false},
		{"zero is falsey", Number(0), true},
		{"nonzero number is truthy", Number(1), false},
		{"negative number is truthy", Number(-1), false},
		{"string is truthy", String(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsFalsey(); got != tt.want {
				t.Errorf("IsFalsey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	if !Equal(Number(1), Number(1)) {
		t.Error("1 == 1 should be true")
	}
	if Equal(Number(1), String("1")) {
		t.Error("different variants should never be equal")
	}
	if Equal(String("a"), String("b")) {
		t.Error("different string payloads should not be equal")
	}
	nan := Number(nan())
	if Equal(nan, nan) {
		t.Error("NaN should compare unequal to itself, per IEEE-754")
	}
}

func nan() float64 {
	return (func() float64 { var z float64; return z / z })()
}

func TestStringRendering(t *testing.T) {
	if got := Number(7).String(); got != "7" {
		t.Errorf("Number(7).String() = %q, want %q", got, "7")
	}
	if got := Number(2.5).String(); got != "2.5" {
		t.Errorf("Number(2.5).String() = %q, want %q", got, "2.5")
	}
	if got := Bool(true).String(); got != "true" {
		t.Errorf("Bool(true).String() = %q, want %q", got, "true")
	}
	if got := Nil().String(); got != "nil" {
		t.Errorf("Nil().String() = %q, want %q", got, "nil")
	}
}
