package cpm

import (
	"fmt"
	"sort"
	"time"

	"github.com/joshharrison/critpath/internal/calendar"
	"github.com/joshharrison/critpath/internal/graph"
	"github.com/rs/zerolog"
)

// Calculate performs critical path method analysis on a task list.
//
// Edges that reference tasks missing from the list contribute nothing to the
// early/late date computations. A dependency cycle is reported as an error
// wrapping graph.ErrCycle. With opts.Strict set, the calendar policy and the
// task list are validated first and any problem is returned instead.
//
// Calculate does not modify tasks and keeps no state between calls.
func Calculate(tasks []graph.Task, opts Options) (*Result, error) {
	if opts.ProjectStart.IsZero() {
		return nil, ErrNoProjectStart
	}
	if opts.Calendar == 0 {
		return nil, ErrNoCalendar
	}
	if opts.Strict {
		if err := opts.Calendar.Validate(); err != nil {
			return nil, err
		}
		if err := graph.Validate(tasks); err != nil {
			return nil, fmt.Errorf("invalid task graph: %w", err)
		}
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	index := make(map[string]int, len(tasks))
	for i := range tasks {
		if _, dup := index[tasks[i].ID]; dup {
			return nil, fmt.Errorf("%w: %s", graph.ErrDuplicateTask, tasks[i].ID)
		}
		index[tasks[i].ID] = i
	}

	order, err := topoSort(tasks, index)
	if err != nil {
		return nil, err
	}

	s := &scheduler{
		tasks: tasks,
		index: index,
		order: order,
		cal:   opts.Calendar,
		log:   log,
		es:    make([]time.Time, len(tasks)),
		ef:    make([]time.Time, len(tasks)),
		ls:    make([]time.Time, len(tasks)),
		lf:    make([]time.Time, len(tasks)),
	}

	projectFinish := s.forward(opts.ProjectStart)
	s.backward(projectFinish)

	result := &Result{
		Tasks:         make([]CalculatedTask, len(tasks)),
		TopoOrder:     make([]string, len(order)),
		ProjectStart:  opts.ProjectStart,
		ProjectFinish: projectFinish,
		Calendar:      opts.Calendar,
		index:         index,
	}
	for k, i := range order {
		result.TopoOrder[k] = tasks[i].ID
	}

	s.float(result, opts.Float)

	// Build critical path (critical tasks in topological order)
	for _, i := range order {
		if result.Tasks[i].IsCritical {
			result.CriticalPath = append(result.CriticalPath, tasks[i].ID)
		}
	}

	result.Waves = computeWaves(result, order)

	log.Debug().
		Int("tasks", len(tasks)).
		Int("critical", len(result.CriticalPath)).
		Str("finish", calendar.FormatDate(projectFinish)).
		Msg("schedule calculated")

	return result, nil
}

type scheduler struct {
	tasks []graph.Task
	index map[string]int
	order []int
	cal   calendar.Policy
	log   zerolog.Logger

	es, ef, ls, lf []time.Time
}

// forward computes early dates in topological order and returns the project
// finish, the latest early finish across all tasks.
func (s *scheduler) forward(projectStart time.Time) time.Time {
	finish := projectStart
	for k, i := range s.order {
		t := &s.tasks[i]

		var start time.Time
		resolved := false
		for _, e := range t.Predecessors {
			p, ok := s.index[e.TaskID]
			if !ok {
				s.dangling(t.ID, e, "predecessor")
				continue
			}

			var dep time.Time
			switch relation(e.Type) {
			case graph.StartToStart:
				dep = s.es[p]
			case graph.FinishToFinish:
				dep = s.cal.AddWorkingDays(s.ef[p], -t.Duration)
			case graph.StartToFinish:
				dep = s.cal.AddWorkingDays(s.es[p], -t.Duration)
			default:
				dep = s.ef[p]
			}
			dep = s.cal.AddWorkingDays(dep, e.Lag)

			if !resolved || dep.After(start) {
				start = dep
				resolved = true
			}
		}
		if !resolved {
			start = projectStart
		}

		s.es[i] = start
		s.ef[i] = s.cal.AddWorkingDays(start, t.Duration)
		if k == 0 || s.ef[i].After(finish) {
			finish = s.ef[i]
		}
	}
	return finish
}

// backward computes late dates in reverse topological order, anchoring tasks
// without resolvable successors at the project finish.
func (s *scheduler) backward(projectFinish time.Time) {
	done := make([]bool, len(s.tasks))
	for k := len(s.order) - 1; k >= 0; k-- {
		i := s.order[k]
		t := &s.tasks[i]

		var finish time.Time
		resolved := false
		for _, e := range t.Successors {
			succ, ok := s.index[e.TaskID]
			if !ok {
				s.dangling(t.ID, e, "successor")
				continue
			}
			if !done[succ] {
				// Successor edge without the mirrored predecessor edge; the
				// successor sorted earlier and has no late dates yet.
				s.log.Debug().Str("task", t.ID).Str("successor", e.TaskID).Msg("skipping unmirrored successor edge")
				continue
			}

			var dep time.Time
			switch relation(e.Type) {
			case graph.StartToStart:
				dep = s.cal.AddWorkingDays(s.ls[succ], t.Duration)
			case graph.FinishToFinish:
				dep = s.lf[succ]
			case graph.StartToFinish:
				dep = s.cal.AddWorkingDays(s.lf[succ], t.Duration)
			default:
				dep = s.ls[succ]
			}
			dep = s.cal.AddWorkingDays(dep, -e.Lag)

			if !resolved || dep.Before(finish) {
				finish = dep
				resolved = true
			}
		}
		if !resolved {
			finish = projectFinish
		}

		s.lf[i] = finish
		s.ls[i] = s.cal.AddWorkingDays(finish, -t.Duration)
		done[i] = true
	}
}

// float fills result.Tasks with dates, total/free float and criticality.
func (s *scheduler) float(result *Result, counting FloatCounting) {
	distance := s.cal.CountWorkingDays
	if counting == ExclusiveFloat {
		distance = s.cal.WorkingDaysBetween
	}

	for i := range s.tasks {
		t := &s.tasks[i]
		total := distance(s.es[i], s.ls[i])

		free := total
		var earliest time.Time
		found := false
		for _, e := range t.Successors {
			succ, ok := s.index[e.TaskID]
			if !ok {
				continue
			}
			if !found || s.es[succ].Before(earliest) {
				earliest = s.es[succ]
				found = true
			}
		}
		if found {
			free = distance(s.ef[i], earliest)
		}
		free = clampFree(free, total)

		result.Tasks[i] = CalculatedTask{
			ID:          t.ID,
			Name:        t.Name,
			Duration:    t.Duration,
			EarlyStart:  s.es[i],
			EarlyFinish: s.ef[i],
			LateStart:   s.ls[i],
			LateFinish:  s.lf[i],
			TotalFloat:  total,
			FreeFloat:   free,
			IsCritical:  total <= 0,
		}
	}
}

// clampFree keeps free float within [0, max(total, 0)]. The upper bound holds
// FF <= TF even when a lagged successor starts later than the task's own late
// finish allows: A(2) FS+3 B on a seven-day week has a raw gap of 4 days but
// reports the total float of A.
func clampFree(free, total int) int {
	if free < 0 {
		return 0
	}
	if upper := max(total, 0); free > upper {
		return upper
	}
	return free
}

// relation normalizes an edge type. Unknown types schedule as finish-to-start.
func relation(t graph.RelationType) graph.RelationType {
	r, err := graph.ParseRelationType(string(t))
	if err != nil {
		return graph.FinishToStart
	}
	return r
}

func (s *scheduler) dangling(taskID string, e graph.Edge, side string) {
	s.log.Debug().
		Str("task", taskID).
		Str(side, e.TaskID).
		Str("type", string(e.Type)).
		Msg("skipping dependency on unknown task")
}

// frame is one level of the topological sort's explicit DFS stack.
type frame struct {
	task int
	next int // index of the next predecessor edge to follow
}

// topoSort orders task indexes so that every task follows its predecessors.
// Depth-first over predecessor edges in input order, with an explicit stack
// and white/gray/black coloring; reaching a gray task again is a cycle.
func topoSort(tasks []graph.Task, index map[string]int) ([]int, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]uint8, len(tasks))
	order := make([]int, 0, len(tasks))

	for root := range tasks {
		if color[root] != white {
			continue
		}

		color[root] = gray
		stack := []frame{{task: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			preds := tasks[top.task].Predecessors
			if top.next == len(preds) {
				color[top.task] = black
				order = append(order, top.task)
				stack = stack[:len(stack)-1]
				continue
			}

			p, ok := index[preds[top.next].TaskID]
			top.next++
			if !ok {
				continue
			}

			switch color[p] {
			case gray:
				return nil, &graph.CycleError{Path: cyclePath(tasks, stack, p)}
			case white:
				color[p] = gray
				stack = append(stack, frame{task: p})
			}
		}
	}

	return order, nil
}

// cyclePath turns the DFS stack into a forward dependency path. The stack
// walks predecessor edges, so the loop is read from the top back down to p.
func cyclePath(tasks []graph.Task, stack []frame, p int) []string {
	start := 0
	for j := range stack {
		if stack[j].task == p {
			start = j
			break
		}
	}

	path := []string{tasks[p].ID}
	for j := len(stack) - 1; j > start; j-- {
		path = append(path, tasks[stack[j].task].ID)
	}
	return append(path, tasks[p].ID)
}

// computeWaves groups tasks by their early start date. Waves are ordered by
// date; within a wave critical tasks come first, then topological order.
func computeWaves(result *Result, order []int) []Wave {
	byStart := make([]int, len(order))
	copy(byStart, order)
	sort.SliceStable(byStart, func(a, b int) bool {
		return result.Tasks[byStart[a]].EarlyStart.Before(result.Tasks[byStart[b]].EarlyStart)
	})

	var waves []Wave
	for _, i := range byStart {
		ct := &result.Tasks[i]
		if len(waves) == 0 || !waves[len(waves)-1].Start.Equal(ct.EarlyStart) {
			waves = append(waves, Wave{Index: len(waves), Start: ct.EarlyStart})
		}
		w := &waves[len(waves)-1]
		w.TaskIDs = append(w.TaskIDs, ct.ID)
		ct.Wave = w.Index
		if ct.IsCritical {
			w.IsCritical = true
		}
	}

	// Sort critical tasks first within wave
	for _, w := range waves {
		ids := w.TaskIDs
		sort.SliceStable(ids, func(a, b int) bool {
			ta, _ := result.Lookup(ids[a])
			tb, _ := result.Lookup(ids[b])
			return ta.IsCritical && !tb.IsCritical
		})
	}

	return waves
}
