package cpm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joshharrison/critpath/internal/calendar"
	"github.com/rs/zerolog"
)

var (
	ErrNoProjectStart = errors.New("project start date is required")
	ErrNoCalendar     = errors.New("working days per week is required")
)

// FloatCounting selects how the working-day distance behind total and free
// float is measured.
type FloatCounting int

const (
	// InclusiveFloat counts both endpoints, so a task whose early and late
	// start coincide on a working day has a total float of 1 and is not
	// critical. This matches the legacy schedules.
	InclusiveFloat FloatCounting = iota
	// ExclusiveFloat counts working days stepped over after the first date,
	// giving 0 for coinciding dates.
	ExclusiveFloat
)

func (f FloatCounting) String() string {
	if f == ExclusiveFloat {
		return "exclusive"
	}
	return "inclusive"
}

// ParseFloatCounting parses "inclusive" or "exclusive"; empty means inclusive.
func ParseFloatCounting(s string) (FloatCounting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inclusive":
		return InclusiveFloat, nil
	case "exclusive":
		return ExclusiveFloat, nil
	}
	return 0, fmt.Errorf("unknown float counting %q (want inclusive or exclusive)", s)
}

// Options are the explicit inputs of a schedule calculation besides the tasks.
type Options struct {
	ProjectStart time.Time       // required
	Calendar     calendar.Policy // required; out-of-range values mean every day works unless Strict
	Float        FloatCounting
	Strict       bool            // validate the graph and calendar before scheduling
	Logger       *zerolog.Logger // optional, debug events only
}

// CalculatedTask holds the scheduling info for a single task.
type CalculatedTask struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Duration    int       `json:"duration"`
	EarlyStart  time.Time `json:"early_start"`
	EarlyFinish time.Time `json:"early_finish"`
	LateStart   time.Time `json:"late_start"`
	LateFinish  time.Time `json:"late_finish"`
	TotalFloat  int       `json:"total_float"`
	FreeFloat   int       `json:"free_float"`
	IsCritical  bool      `json:"is_critical"`
	Wave        int       `json:"wave"` // which early-start group this belongs to
}

// Result holds the complete critical path analysis.
type Result struct {
	Tasks         []CalculatedTask // same order as the input tasks
	TopoOrder     []string
	CriticalPath  []string // critical task IDs in topological order
	ProjectStart  time.Time
	ProjectFinish time.Time
	Calendar      calendar.Policy
	Waves         []Wave // tasks grouped by early start

	index map[string]int
}

// Lookup returns the calculated schedule of a task by ID.
func (r *Result) Lookup(id string) (*CalculatedTask, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return &r.Tasks[i], true
}

// Duration is the project span in working days, measured the way task
// durations are: ProjectFinish == AddWorkingDays(ProjectStart, Duration()).
func (r *Result) Duration() int {
	if len(r.Tasks) == 0 {
		return 0
	}
	return r.Calendar.WorkingDaysBetween(r.ProjectStart, r.ProjectFinish)
}

// Wave represents a group of tasks sharing an early start date.
type Wave struct {
	Index      int       `json:"index"`
	Start      time.Time `json:"start"`
	TaskIDs    []string  `json:"task_ids"`
	IsCritical bool      `json:"is_critical"` // true if wave contains critical path tasks
}
