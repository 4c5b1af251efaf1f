package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joshharrison/critpath/internal/calendar"
	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/graph"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

// makeReporter schedules A -> {B(2), C(5)} -> D on a five-day week from
// Monday 2024-01-01 with exclusive float, so A, C and D are critical.
func makeReporter(t *testing.T) *Reporter {
	t.Helper()
	tasks := []graph.Task{
		{ID: "a", Name: "Survey", Duration: 2, Labels: []string{"site"}},
		{ID: "b", Name: "Order parts", Duration: 2},
		{ID: "c", Name: "Build frame", Duration: 5},
		{ID: "d", Name: "Inspect", Duration: 1},
	}
	links := []graph.Link{
		{Predecessor: "a", Successor: "b"},
		{Predecessor: "a", Successor: "c"},
		{Predecessor: "b", Successor: "d"},
		{Predecessor: "c", Successor: "d", Lag: 0},
	}
	g, err := graph.Build(tasks, links)
	if err != nil {
		t.Fatal(err)
	}
	result, err := cpm.Calculate(g.TaskList(), cpm.Options{
		ProjectStart: calendar.Date(2024, 1, 1),
		Calendar:     calendar.FiveDay,
		Float:        cpm.ExclusiveFloat,
	})
	if err != nil {
		t.Fatal(err)
	}

	r := New("Garage", g, result)
	r.Now = func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }
	return r
}

func TestReport(t *testing.T) {
	rep := makeReporter(t).Report()

	if _, err := uuid.Parse(rep.ID); err != nil {
		t.Errorf("expected a UUID report id, got %q", rep.ID)
	}
	if rep.ProjectStart != "2024-01-01" || rep.ProjectFinish != "2024-01-11" {
		t.Errorf("unexpected project span %s..%s", rep.ProjectStart, rep.ProjectFinish)
	}
	if rep.WorkingDaysPerWeek != 5 {
		t.Errorf("expected 5 working days per week, got %d", rep.WorkingDaysPerWeek)
	}
	if rep.DurationDays != 8 {
		t.Errorf("expected 8 working days, got %d", rep.DurationDays)
	}
	if strings.Join(rep.CriticalPath, ",") != "a,c,d" {
		t.Errorf("unexpected critical path %v", rep.CriticalPath)
	}
	if len(rep.Tasks) != 4 || len(rep.Waves) != 3 {
		t.Fatalf("expected 4 tasks and 3 waves, got %d and %d", len(rep.Tasks), len(rep.Waves))
	}

	b := rep.Tasks[1]
	if b.ID != "b" || b.EarlyStart != "2024-01-03" || b.LateFinish != "2024-01-10" || b.TotalFloat != 3 {
		t.Errorf("unexpected row for b: %+v", b)
	}
	if len(rep.Tasks[0].Labels) != 1 || rep.Tasks[0].Labels[0] != "site" {
		t.Errorf("expected labels carried through, got %v", rep.Tasks[0].Labels)
	}
	if rep.Waves[1].Start != "2024-01-03" || !rep.Waves[1].IsCritical {
		t.Errorf("unexpected wave 1: %+v", rep.Waves[1])
	}
}

func TestReport_FreshIDs(t *testing.T) {
	r := makeReporter(t)
	if r.Report().ID == r.Report().ID {
		t.Error("expected a new id per report")
	}
}

func TestJSON(t *testing.T) {
	data, err := makeReporter(t).JSON()
	if err != nil {
		t.Fatalf("JSON error: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"id", "generated_at", "project", "project_start", "project_finish", "critical_path", "tasks", "waves"} {
		if _, ok := parsed[key]; !ok {
			t.Errorf("missing key %s", key)
		}
	}
	if parsed["generated_at"] != "2024-01-01T09:00:00Z" {
		t.Errorf("unexpected generated_at %v", parsed["generated_at"])
	}
	task := parsed["tasks"].([]interface{})[0].(map[string]interface{})
	if task["early_start"] != "2024-01-01" || task["is_critical"] != true {
		t.Errorf("unexpected first task %v", task)
	}
}

func TestPrintSchedule(t *testing.T) {
	var buf bytes.Buffer
	makeReporter(t).PrintSchedule(&buf)
	out := buf.String()

	for _, want := range []string{
		"Garage Schedule",
		"Start:     2024-01-01",
		"Finish:    2024-01-11",
		"5-day week",
		"Order parts",
		"2024-01-08",
		"a → c → d",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
}

func TestPrintCritical(t *testing.T) {
	var buf bytes.Buffer
	makeReporter(t).PrintCritical(&buf)
	out := buf.String()

	if !strings.Contains(out, "(3 tasks)") {
		t.Errorf("expected 3 critical tasks, got\n%s", out)
	}
	if strings.Contains(out, "Order parts") {
		t.Errorf("non-critical task listed\n%s", out)
	}
	if !strings.Contains(out, "Build frame") {
		t.Errorf("critical task missing\n%s", out)
	}
	if !strings.Contains(out, "[c]") {
		t.Errorf("expected bracketed task id prefix\n%s", out)
	}
}

func TestPrintWaves(t *testing.T) {
	var buf bytes.Buffer
	makeReporter(t).PrintWaves(&buf)
	out := buf.String()

	if strings.Count(out, "Wave ") != 3 {
		t.Errorf("expected 3 waves\n%s", out)
	}
	if !strings.Contains(out, "└──→ c") || !strings.Contains(out, "└──→ d") {
		t.Errorf("expected successor edges\n%s", out)
	}
}

func TestPrintDOT(t *testing.T) {
	var buf bytes.Buffer
	makeReporter(t).PrintDOT(&buf)
	out := buf.String()

	if !strings.HasPrefix(out, "digraph critpath {") || !strings.HasSuffix(out, "}\n") {
		t.Errorf("malformed DOT\n%s", out)
	}
	if !strings.Contains(out, `"a" -> "c" [color=red, penwidth=2, style=bold];`) {
		t.Errorf("expected bold critical edge a -> c\n%s", out)
	}
	if !strings.Contains(out, `"a" -> "b";`) {
		t.Errorf("expected plain edge a -> b\n%s", out)
	}
	if !strings.Contains(out, `"c" [label=`) || !strings.Contains(out, `color=red];`) {
		t.Errorf("expected critical node styling\n%s", out)
	}
}

func TestEdgeLabel(t *testing.T) {
	tests := []struct {
		edge graph.Edge
		want string
	}{
		{graph.Edge{Type: graph.FinishToStart}, ""},
		{graph.Edge{Type: ""}, ""},
		{graph.Edge{Type: graph.StartToStart}, "SS"},
		{graph.Edge{Type: graph.FinishToStart, Lag: 2}, "FS+2"},
		{graph.Edge{Type: graph.FinishToFinish, Lag: -1}, "FF-1"},
	}
	for _, tt := range tests {
		if got := edgeLabel(tt.edge); got != tt.want {
			t.Errorf("edgeLabel(%+v) = %q, want %q", tt.edge, got, tt.want)
		}
	}
}

func TestEscapeDOT(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`plain`, `plain`},
		{`say "hi"`, `say \"hi\"`},
		{`C:\temp\`, `C:\\temp\\`},
		{`\"`, `\\\"`},
	}
	for _, tt := range tests {
		if got := escapeDOT(tt.in); got != tt.want {
			t.Errorf("escapeDOT(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("é", 40)
	got := truncate(long, 30)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if want := strings.Repeat("é", 27) + "..."; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got := truncate("Demolición", 30); got != "Demolición" {
		t.Errorf("short names should be untouched, got %q", got)
	}
}

func TestPrintSchedule_MultiByteName(t *testing.T) {
	r := makeReporter(t)
	r.Result.Tasks[0].Name = "Demolición de la cocina y retirada de escombros"

	var buf bytes.Buffer
	r.PrintSchedule(&buf)
	out := buf.String()
	if !utf8.ValidString(out) {
		t.Fatal("schedule output is not valid UTF-8")
	}
	if !strings.Contains(out, "Demolición de la cocina y r...") {
		t.Errorf("expected the name cut to 27 runes\n%s", out)
	}
}
