package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshharrison/critpath/internal/calendar"
	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/graph"
	"github.com/joshharrison/critpath/internal/ui"
)

// Reporter renders a computed schedule for terminals, JSON consumers and
// Graphviz.
type Reporter struct {
	Project string
	Graph   *graph.TaskGraph
	Result  *cpm.Result

	// Now stamps generated reports; defaults to time.Now.
	Now func() time.Time
}

// New creates a new Reporter.
func New(project string, g *graph.TaskGraph, result *cpm.Result) *Reporter {
	return &Reporter{
		Project: project,
		Graph:   g,
		Result:  result,
		Now:     time.Now,
	}
}

// Report is the machine-readable form of a schedule.
type Report struct {
	ID                 string       `json:"id"`
	GeneratedAt        time.Time    `json:"generated_at"`
	Project            string       `json:"project,omitempty"`
	ProjectStart       string       `json:"project_start"`
	ProjectFinish      string       `json:"project_finish"`
	WorkingDaysPerWeek int          `json:"working_days_per_week"`
	DurationDays       int          `json:"duration_days"`
	CriticalPath       []string     `json:"critical_path"`
	Tasks              []TaskReport `json:"tasks"`
	Waves              []WaveReport `json:"waves"`
}

// TaskReport is one task row with dates formatted YYYY-MM-DD.
type TaskReport struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Duration    int      `json:"duration"`
	EarlyStart  string   `json:"early_start"`
	EarlyFinish string   `json:"early_finish"`
	LateStart   string   `json:"late_start"`
	LateFinish  string   `json:"late_finish"`
	TotalFloat  int      `json:"total_float"`
	FreeFloat   int      `json:"free_float"`
	IsCritical  bool     `json:"is_critical"`
	Wave        int      `json:"wave"`
	Labels      []string `json:"labels,omitempty"`
}

// WaveReport is a group of tasks sharing an early start date.
type WaveReport struct {
	Index      int      `json:"index"`
	Start      string   `json:"start"`
	TaskIDs    []string `json:"task_ids"`
	IsCritical bool     `json:"is_critical"`
}

// Report builds the machine-readable schedule. Each call gets a fresh ID.
func (r *Reporter) Report() Report {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	res := r.Result
	rep := Report{
		ID:                 uuid.NewString(),
		GeneratedAt:        now().UTC(),
		Project:            r.Project,
		WorkingDaysPerWeek: int(res.Calendar),
		DurationDays:       res.Duration(),
		CriticalPath:       append([]string{}, res.CriticalPath...),
		Tasks:              make([]TaskReport, 0, len(res.Tasks)),
		Waves:              make([]WaveReport, 0, len(res.Waves)),
	}
	if !res.ProjectStart.IsZero() {
		rep.ProjectStart = calendar.FormatDate(res.ProjectStart)
		rep.ProjectFinish = calendar.FormatDate(res.ProjectFinish)
	}

	for _, ct := range res.Tasks {
		tr := TaskReport{
			ID:          ct.ID,
			Name:        ct.Name,
			Duration:    ct.Duration,
			EarlyStart:  calendar.FormatDate(ct.EarlyStart),
			EarlyFinish: calendar.FormatDate(ct.EarlyFinish),
			LateStart:   calendar.FormatDate(ct.LateStart),
			LateFinish:  calendar.FormatDate(ct.LateFinish),
			TotalFloat:  ct.TotalFloat,
			FreeFloat:   ct.FreeFloat,
			IsCritical:  ct.IsCritical,
			Wave:        ct.Wave,
		}
		if r.Graph != nil {
			if t, ok := r.Graph.Tasks[ct.ID]; ok {
				tr.Labels = t.Labels
			}
		}
		rep.Tasks = append(rep.Tasks, tr)
	}

	for _, w := range res.Waves {
		rep.Waves = append(rep.Waves, WaveReport{
			Index:      w.Index,
			Start:      calendar.FormatDate(w.Start),
			TaskIDs:    w.TaskIDs,
			IsCritical: w.IsCritical,
		})
	}
	return rep
}

// JSON returns the indented machine-readable report.
func (r *Reporter) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Report(), "", "  ")
}

// PrintSchedule writes the schedule table: header, one row per task in
// input order, then the critical path.
func (r *Reporter) PrintSchedule(w io.Writer) {
	res := r.Result
	r.printHeader(w, "Schedule")

	fmt.Fprintf(w, "  %s %-12s %-30s %4s  %-10s  %-10s  %-10s  %-10s  %-5s  %-5s\n",
		" ", "ID", "NAME", "DUR", "ES", "EF", "LS", "LF", "TF", "FF")
	for _, ct := range res.Tasks {
		name := truncate(ct.Name, 30)
		fmt.Fprintf(w, "  %s %s %-30s %4d  %-10s  %-10s  %-10s  %-10s  %s  %-5d\n",
			ui.CriticalIcon(ct.IsCritical),
			ui.BoldMagenta(pad(ct.ID, 12)),
			name, ct.Duration,
			calendar.FormatDate(ct.EarlyStart), calendar.FormatDate(ct.EarlyFinish),
			calendar.FormatDate(ct.LateStart), calendar.FormatDate(ct.LateFinish),
			ui.FloatLabel(ct.TotalFloat)+strings.Repeat(" ", padWidth(fmt.Sprint(ct.TotalFloat), 5)),
			ct.FreeFloat)
	}
	fmt.Fprintln(w)
	r.printCriticalLine(w)
}

// PrintCritical writes only the critical path, one task per line.
func (r *Reporter) PrintCritical(w io.Writer) {
	res := r.Result
	r.printCriticalLine(w)
	for _, id := range res.CriticalPath {
		ct, ok := res.Lookup(id)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %s %s  %s → %s  %s\n",
			ui.CriticalIcon(true), ui.TaskPrefix(id),
			calendar.FormatDate(ct.EarlyStart), calendar.FormatDate(ct.EarlyFinish),
			ct.Name)
	}
}

// PrintWaves writes the schedule grouped by early start with each task's
// successor edges, as an ASCII graph.
func (r *Reporter) PrintWaves(w io.Writer) {
	res := r.Result
	fmt.Fprintf(w, "🔗 %s\n", ui.BoldCyan("Task Dependency Graph"))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════"))
	fmt.Fprintln(w)

	for _, wave := range res.Waves {
		fmt.Fprintf(w, "%s 🌊 Wave %d  %s  %s %s\n",
			ui.Cyan("──"), wave.Index+1, calendar.FormatDate(wave.Start),
			ui.WaveLabel(wave.IsCritical), ui.Cyan("──────────────────"))
		for _, id := range wave.TaskIDs {
			ct, _ := res.Lookup(id)
			fmt.Fprintf(w, "  %s [%s] %s\n", ui.CriticalIcon(ct.IsCritical), ui.BoldMagenta(id), ct.Name)

			for _, e := range r.successors(id) {
				fmt.Fprintf(w, "      %s %s %s\n", ui.Dim("└──→"), ui.Magenta(e.TaskID), ui.Dim(edgeLabel(e)))
			}
		}
		fmt.Fprintln(w)
	}
}

// PrintDOT writes the task graph in Graphviz DOT format. Critical tasks and
// the edges between them are drawn bold red.
func (r *Reporter) PrintDOT(w io.Writer) {
	res := r.Result
	fmt.Fprintln(w, "digraph critpath {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	for _, ct := range res.Tasks {
		label := fmt.Sprintf("%s\\n%s\\n%s .. %s (TF %d)", ct.ID, escapeDOT(ct.Name),
			calendar.FormatDate(ct.EarlyStart), calendar.FormatDate(ct.EarlyFinish), ct.TotalFloat)
		attrs := fmt.Sprintf(`label="%s"`, label)
		if ct.IsCritical {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(w, "  %q [%s];\n", ct.ID, attrs)
	}

	fmt.Fprintln(w)

	for _, ct := range res.Tasks {
		for _, e := range r.successors(ct.ID) {
			attrs := []string{}
			if l := edgeLabel(e); l != "" {
				attrs = append(attrs, fmt.Sprintf("label=%q", l))
			}
			if to, ok := res.Lookup(e.TaskID); ok && ct.IsCritical && to.IsCritical {
				attrs = append(attrs, "color=red", "penwidth=2", "style=bold")
			}
			style := ""
			if len(attrs) > 0 {
				style = " [" + strings.Join(attrs, ", ") + "]"
			}
			fmt.Fprintf(w, "  %q -> %q%s;\n", ct.ID, e.TaskID, style)
		}
	}

	fmt.Fprintln(w, "}")
}

func (r *Reporter) printHeader(w io.Writer, title string) {
	res := r.Result
	name := r.Project
	if name == "" {
		name = "Project"
	}
	fmt.Fprintf(w, "🎯 %s\n", ui.BoldCyan(name+" "+title))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════════"))
	fmt.Fprintln(w)
	if len(res.Tasks) > 0 {
		fmt.Fprintf(w, "Start:     %s\n", ui.Bold(calendar.FormatDate(res.ProjectStart)))
		fmt.Fprintf(w, "Finish:    %s\n", ui.Bold(calendar.FormatDate(res.ProjectFinish)))
	}
	fmt.Fprintf(w, "Calendar:  %s\n", res.Calendar)
	fmt.Fprintf(w, "Tasks:     %s in %s waves, %s working days\n",
		ui.Bold(len(res.Tasks)), ui.Bold(len(res.Waves)), ui.Bold(res.Duration()))
	fmt.Fprintln(w)
}

func (r *Reporter) printCriticalLine(w io.Writer) {
	cp := r.Result.CriticalPath
	if len(cp) == 0 {
		fmt.Fprintf(w, "⚡ Critical path: %s\n", ui.Dim("none"))
		return
	}
	fmt.Fprintf(w, "⚡ Critical path: %s (%d tasks)\n", ui.BoldYellow(strings.Join(cp, " → ")), len(cp))
}

// successors returns the task's outgoing edges to tasks in the schedule.
func (r *Reporter) successors(id string) []graph.Edge {
	if r.Graph == nil {
		return nil
	}
	t, ok := r.Graph.Tasks[id]
	if !ok {
		return nil
	}
	var out []graph.Edge
	for _, e := range t.Successors {
		if _, ok := r.Result.Lookup(e.TaskID); ok {
			out = append(out, e)
		}
	}
	return out
}

// edgeLabel describes non-default relations, e.g. "SS+2"; plain FS is empty.
func edgeLabel(e graph.Edge) string {
	typ, err := graph.ParseRelationType(string(e.Type))
	if err != nil {
		typ = graph.FinishToStart
	}
	switch {
	case typ == graph.FinishToStart && e.Lag == 0:
		return ""
	case e.Lag == 0:
		return string(typ)
	default:
		return fmt.Sprintf("%s%+d", typ, e.Lag)
	}
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeDOT(s string) string {
	return dotEscaper.Replace(s)
}

// truncate shortens s to at most width runes, ending in "..." when cut.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", padWidth(s, width))
}

func padWidth(s string, width int) int {
	if n := width - len(s); n > 0 {
		return n
	}
	return 0
}
