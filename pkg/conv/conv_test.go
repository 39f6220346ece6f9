package conv

import (
	"testing"

	"github.com/go-gota/gota/series"
)

func TestElementValue(t *testing.T) {
	ints := series.New([]string{"7", "NaN"}, series.Int, "a")
	floats := series.New([]string{"1.5", "NaN"}, series.Float, "b")
	strs := series.New([]string{"x", "NaN"}, series.String, "c")

	if got := ElementValue(ints.Elem(0)); got != int64(7) {
		t.Errorf("int = %#v, want 7", got)
	}
	if got := ElementValue(floats.Elem(0)); got != 1.5 {
		t.Errorf("float = %#v, want 1.5", got)
	}
	if got := ElementValue(strs.Elem(0)); got != "x" {
		t.Errorf("string = %#v, want x", got)
	}
	for _, s := range []series.Series{ints, floats, strs} {
		if got := ElementValue(s.Elem(1)); got != nil {
			t.Errorf("%s null = %#v, want nil", s.Name, got)
		}
	}
}

func TestConfigGetFloat64(t *testing.T) {
	m := map[string]any{"int": 0, "float": 2.5, "str": "x"}
	if got := ConfigGetFloat64(m, "int", 9); got != 0 {
		t.Errorf("int = %v, want 0", got)
	}
	if got := ConfigGetFloat64(m, "float", 9); got != 2.5 {
		t.Errorf("float = %v, want 2.5", got)
	}
	if got := ConfigGetFloat64(m, "str", 9); got != 9 {
		t.Errorf("str = %v, want default", got)
	}
	if got := ConfigGetFloat64(nil, "x", 3); got != 3 {
		t.Errorf("nil map = %v, want default", got)
	}
}

func TestSliceAnyToString(t *testing.T) {
	got := SliceAnyToString([]any{"a", 3, 4.0, true})
	want := []string{"a", "3", "4", "1"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
