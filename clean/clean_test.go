package clean

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/go-gota/gota/series"

	"github.com/rushteam/kuairec/core"
	"github.com/rushteam/kuairec/table"
)

func parse(t *testing.T, name core.TableName, src string) *core.Table {
	t.Helper()
	tbl, err := table.Parse(name, strings.NewReader(src), core.ParseStrict)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return tbl
}

func runPlan(t *testing.T, name core.TableName, in *core.Table) *core.Table {
	t.Helper()
	out, err := DefaultPlan().Pipeline(name).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return out
}

func TestInteractionCleaning_Example(t *testing.T) {
	src := strings.Join([]string{
		"user_id,video_id,play_duration,timestamp",
		"14,148,4381,1593898732.002",
		"14,183,11635,1593898765.12",
		",3649,22422,1593898800.5",
		"14,148,4381,1593898732.002",
		"21,1000,500,-10",
	}, "\n") + "\n"

	in := parse(t, core.SmallMatrix, src)
	out := runPlan(t, core.SmallMatrix, in)

	if out.Nrow() != 2 {
		t.Fatalf("Nrow = %d, want 2", out.Nrow())
	}
	videos := out.Frame.Col("video_id").Records()
	if videos[0] != "148" || videos[1] != "183" {
		t.Errorf("video_id = %v, want [148 183]", videos)
	}
	if in.Nrow() != 5 {
		t.Errorf("input mutated: Nrow = %d, want 5", in.Nrow())
	}
}

func TestInteractionCleaning_Invariants(t *testing.T) {
	src := strings.Join([]string{
		"user_id,video_id,watch_ratio,timestamp",
		"1,1,0.5,10",
		"1,1,0.5,10",
		"1,1,0.50000001,10",
		"2,NaN,0.1,11",
		"3,3,0.3,0",
		"4,4,0.4,-0.001",
		"5,5,,12",
	}, "\n") + "\n"

	out := runPlan(t, core.BigMatrix, parse(t, core.BigMatrix, src))

	if out.Nrow() != 3 {
		t.Fatalf("Nrow = %d, want 3", out.Nrow())
	}
	for _, name := range out.Frame.Names() {
		for i, na := range out.Frame.Col(name).IsNaN() {
			if na {
				t.Errorf("null in %s row %d", name, i)
			}
		}
	}
	for i, ts := range out.Frame.Col("timestamp").Float() {
		if ts < 0 {
			t.Errorf("row %d timestamp = %v", i, ts)
		}
	}
	seen := map[string]bool{}
	cols := out.Series()
	for i := 0; i < out.Nrow(); i++ {
		parts := make([]string, len(cols))
		for j, s := range cols {
			parts[j] = cellKey(s.Elem(i))
		}
		key := strings.Join(parts, ",")
		if seen[key] {
			t.Errorf("duplicate row %s", key)
		}
		seen[key] = true
	}
}

func TestItemCategoriesCleaning(t *testing.T) {
	src := strings.Join([]string{
		"video_id,feat",
		`0,[8]`,
		`1,"[27, 9]"`,
		`1,"[27, 9]"`,
		`2,`,
		`3,[]`,
	}, "\n") + "\n"

	out := runPlan(t, core.ItemCategories, parse(t, core.ItemCategories, src))

	if out.Nrow() != 3 {
		t.Fatalf("Nrow = %d, want 3", out.Nrow())
	}
	for _, name := range out.Frame.Names() {
		if name == "feat" {
			t.Fatal("raw feat column should be removed from frame")
		}
	}
	want := [][]int{{8}, {27, 9}, {}}
	for i, w := range want {
		got, ok := out.List("feat", i)
		if !ok {
			t.Fatalf("row %d: feat missing", i)
		}
		if fmt.Sprint(got) != fmt.Sprint(w) {
			t.Errorf("row %d: feat = %v, want %v", i, got, w)
		}
	}
	if cols := out.Columns(); cols[len(cols)-1] != "feat" {
		t.Errorf("Columns = %v, want feat last", cols)
	}
}

func TestItemCategoriesCleaning_MalformedFeat(t *testing.T) {
	src := "video_id,feat\n0,[8]\n1,\"[27, oops]\"\n"
	_, err := DefaultPlan().Pipeline(core.ItemCategories).Run(context.Background(), parse(t, core.ItemCategories, src))
	if !core.IsParseError(err) {
		t.Fatalf("error = %v, want PARSE_ERROR", err)
	}
	if !strings.Contains(err.Error(), "row 1") {
		t.Errorf("error %q should name the row", err)
	}
}

func TestItemCategoriesCleaning_AnyJSONList(t *testing.T) {
	src := strings.Join([]string{
		"video_id,feat",
		`0,"[1.5]"`,
		`1,"[""a"", 2]"`,
		`2,"[true, null, [3]]"`,
	}, "\n") + "\n"

	in := parse(t, core.ItemCategories, src)
	out, err := (&JSONList{Column: "feat"}).Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := [][]any{
		{1.5},
		{"a", int64(2)},
		{true, nil, []any{int64(3)}},
	}
	for i, w := range want {
		got, ok := out.List("feat", i)
		if !ok {
			t.Fatalf("row %d: feat missing", i)
		}
		if !reflect.DeepEqual(got, w) {
			t.Errorf("row %d: feat = %#v, want %#v", i, got, w)
		}
	}
}

func TestItemCategoriesCleaning_NotAList(t *testing.T) {
	for _, feat := range []string{`"{""a"": 1}"`, "5", `"[1] [2]"`} {
		src := "video_id,feat\n0," + feat + "\n"
		_, err := (&JSONList{Column: "feat"}).Process(context.Background(), parse(t, core.ItemCategories, src))
		if !core.IsParseError(err) {
			t.Errorf("feat %s: error = %v, want PARSE_ERROR", feat, err)
		}
	}
}

func TestUserFeaturesCleaning(t *testing.T) {
	header := []string{"user_id", "user_active_degree", "is_lowactive_period", "follow_user_num"}
	for i := 0; i < 18; i++ {
		header = append(header, fmt.Sprintf("onehot_feat%d", i))
	}
	row := func(uid, degree, follow, feat0 string) string {
		cells := []string{uid, degree, "0", follow, feat0}
		for i := 1; i < 18; i++ {
			cells = append(cells, "1")
		}
		return strings.Join(cells, ",")
	}
	src := strings.Join([]string{
		strings.Join(header, ","),
		row("0", "high_active", "5", "0"),
		row("1", "", "", "3"),
		row("2", "UNKNOWN", "7", ""),
	}, "\n") + "\n"

	out := runPlan(t, core.UserFeatures, parse(t, core.UserFeatures, src))

	want := UserFeatureColumns()
	got := out.Columns()
	if len(got) != len(want) {
		t.Fatalf("Columns = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, got[i], want[i])
		}
	}
	if out.Nrow() != 3 {
		t.Errorf("Nrow = %d, want 3", out.Nrow())
	}
	for _, name := range out.Frame.Names() {
		for i, na := range out.Frame.Col(name).IsNaN() {
			if na {
				t.Errorf("null in %s row %d", name, i)
			}
		}
	}
	if v := out.Frame.Col("follow_user_num").Elem(1).Float(); v != -1 {
		t.Errorf("follow_user_num = %v, want -1", v)
	}
	if v := out.Frame.Col("user_active_degree").Elem(1).String(); v != "-1" {
		t.Errorf("user_active_degree = %q, want -1", v)
	}
	if v := out.Frame.Col("onehot_feat0").Elem(2).Float(); v != -1 {
		t.Errorf("onehot_feat0 = %v, want -1", v)
	}
}

func TestUserFeaturesCleaning_AllNullColumn(t *testing.T) {
	header := []string{"user_id", "user_active_degree", "follow_user_num"}
	for i := 0; i < 18; i++ {
		header = append(header, fmt.Sprintf("onehot_feat%d", i))
	}
	row := func(uid string) string {
		cells := []string{uid, "high_active", "5"}
		for i := 0; i < 18; i++ {
			if i == 3 {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, "1")
		}
		return strings.Join(cells, ",")
	}
	src := strings.Join([]string{strings.Join(header, ","), row("0"), row("1")}, "\n") + "\n"

	out := runPlan(t, core.UserFeatures, parse(t, core.UserFeatures, src))

	col := out.Frame.Col("onehot_feat3")
	if col.Type() != series.Int {
		t.Errorf("onehot_feat3 type = %s, want int", col.Type())
	}
	for i, v := range col.Float() {
		if v != -1 {
			t.Errorf("onehot_feat3 row %d = %v, want -1", i, v)
		}
	}
}

func TestUserFeaturesCleaning_MissingColumn(t *testing.T) {
	_, err := DefaultPlan().Pipeline(core.UserFeatures).Run(context.Background(),
		parse(t, core.UserFeatures, "user_active_degree\nhigh\n"))
	if !core.IsInvalidInput(err) {
		t.Fatalf("error = %v, want INVALID_INPUT", err)
	}
}

func TestWhere(t *testing.T) {
	src := "user_id,watch_ratio\n1,0.2\n2,3.5\n3,\n"
	w, err := NewWhere("row.watch_ratio != null && row.watch_ratio < 2.0")
	if err != nil {
		t.Fatalf("NewWhere() error = %v", err)
	}
	out, err := w.Process(context.Background(), parse(t, core.SmallMatrix, src))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out.Nrow() != 1 {
		t.Errorf("Nrow = %d, want 1", out.Nrow())
	}

	if _, err := NewWhere("row.a +"); !core.IsInvalidInput(err) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestPlan_ApplyOrderAndExtend(t *testing.T) {
	plan := DefaultPlan()
	where, err := NewWhere("row.user_id > 1")
	if err != nil {
		t.Fatal(err)
	}
	plan.Extend(core.SocialNetwork, where)

	got := plan.Tables()
	want := []core.TableName{core.SmallMatrix, core.BigMatrix, core.ItemCategories, core.UserFeatures, core.SocialNetwork}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Tables() = %v, want %v", got, want)
	}
	if plan.Pipeline(core.Captions) != nil {
		t.Error("captions should have no cleaning pipeline")
	}
}

func TestDefaultFactory(t *testing.T) {
	f := DefaultFactory()
	for _, typ := range []string{"clean.dropna", "clean.dedup", "clean.min_value", "clean.json_list", "clean.select", "clean.fillna", "clean.where"} {
		if !f.Has(typ) {
			t.Errorf("factory missing %s", typ)
		}
	}
	node, err := f.Build("clean.min_value", map[string]interface{}{"column": "date", "min": 20200705})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	mv := node.(*MinValue)
	if mv.Column != "date" || mv.Min != 20200705 {
		t.Errorf("MinValue = %+v", mv)
	}
	if _, err := f.Build("clean.where", map[string]interface{}{}); err == nil {
		t.Error("expected error for missing expr")
	}
}
