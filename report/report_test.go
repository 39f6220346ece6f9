package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/rushteam/kuairec/core"
	"github.com/rushteam/kuairec/table"
)

func dataset(t *testing.T) *core.Dataset {
	t.Helper()
	ds := &core.Dataset{}
	src := map[core.TableName]string{
		core.SmallMatrix: "user_id,watch_ratio,note\n1,0.5,a\n2,1.5,\n3,,c\n",
		core.Captions:    "video_id,caption\n7,hello\n",
	}
	for name, csv := range src {
		tbl, err := table.Parse(name, strings.NewReader(csv), core.ParseStrict)
		if err != nil {
			t.Fatalf("Parse(%s) error = %v", name, err)
		}
		if err := ds.Set(tbl); err != nil {
			t.Fatal(err)
		}
	}
	return ds
}

func column(t *testing.T, ts TableSummary, name string) ColumnSummary {
	t.Helper()
	for _, c := range ts.Columns {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %s not found", name)
	return ColumnSummary{}
}

func TestSummarize(t *testing.T) {
	s := Summarize(dataset(t))

	if len(s.Tables) != 2 {
		t.Fatalf("len(Tables) = %d, want 2", len(s.Tables))
	}
	if s.Tables[0].Name != core.SmallMatrix || s.Tables[1].Name != core.Captions {
		t.Errorf("order = %s, %s", s.Tables[0].Name, s.Tables[1].Name)
	}

	small := s.Tables[0]
	if small.Rows != 3 {
		t.Errorf("Rows = %d, want 3", small.Rows)
	}

	tests := []struct {
		name     string
		nonNull  int
		numeric  bool
		mean     float64
		min, max float64
	}{
		{"user_id", 3, true, 2, 1, 3},
		{"watch_ratio", 2, true, 1, 0.5, 1.5},
		{"note", 2, false, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := column(t, small, tt.name)
			if c.NonNull != tt.nonNull || c.Numeric != tt.numeric {
				t.Errorf("got non_null=%d numeric=%v", c.NonNull, c.Numeric)
			}
			if math.Abs(c.Mean-tt.mean) > 1e-9 || c.Min != tt.min || c.Max != tt.max {
				t.Errorf("got mean=%v min=%v max=%v", c.Mean, c.Min, c.Max)
			}
		})
	}

	if std := column(t, small, "user_id").Std; math.Abs(std-1) > 1e-9 {
		t.Errorf("user_id std = %v, want 1", std)
	}
	if c := column(t, s.Tables[1], "video_id"); c.Std != 0 || c.Mean != 7 {
		t.Errorf("single value: mean=%v std=%v, want 7 and 0", c.Mean, c.Std)
	}
}

func TestSummary_Output(t *testing.T) {
	s := Summarize(dataset(t))

	var buf bytes.Buffer
	if err := s.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	for _, want := range []string{"dataset (raw)", "small_matrix", "watch_ratio", "captions"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, buf.String())
		}
	}

	if _, err := json.Marshal(s); err != nil {
		t.Errorf("json.Marshal() error = %v", err)
	}
}
