package dsl

import "testing"

func TestPredicate_Match(t *testing.T) {
	row := map[string]any{
		"user_id":     int64(14),
		"watch_ratio": 0.72,
		"caption":     nil,
		"degree":      "high_active",
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"int compare", "row.user_id == 14", true},
		{"double compare", "row.watch_ratio > 0.5", true},
		{"mixed numeric", "row.watch_ratio < 1", true},
		{"null check", "row.caption == null", true},
		{"string func", `row.degree.startsWith("high")`, true},
		{"logic", "row.user_id > 100 || row.watch_ratio > 0.9", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q) error = %v", tt.expr, err)
			}
			got, err := p.Match(row)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, expr := range []string{"", "row.a >", `"not bool"`} {
		if _, err := Compile(expr); err == nil {
			t.Errorf("Compile(%q) expected error", expr)
		}
	}
}

func TestPredicate_MissingColumn(t *testing.T) {
	p, err := Compile("row.absent > 1")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := p.Match(map[string]any{"x": int64(1)}); err == nil {
		t.Error("expected error for missing column")
	}
}
