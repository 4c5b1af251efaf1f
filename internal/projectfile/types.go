package projectfile

import (
	"time"

	"github.com/joshharrison/critpath/internal/calendar"
	"github.com/joshharrison/critpath/internal/graph"
)

// Project is a project definition as stored on disk: task records plus the
// relationship records between them.
type Project struct {
	Name               string       `json:"name" yaml:"name"`
	Start              string       `json:"start" yaml:"start" validate:"omitempty,datetime=2006-01-02"`
	WorkingDaysPerWeek int          `json:"working_days_per_week" yaml:"working_days_per_week" validate:"min=0"`
	Tasks              []TaskRecord `json:"tasks" yaml:"tasks" validate:"dive"`
	Links              []LinkRecord `json:"links" yaml:"links" validate:"dive"`
}

// TaskRecord is one task row. After lists predecessors inline, as an
// alternative to separate link records.
type TaskRecord struct {
	ID       string        `json:"id" yaml:"id" validate:"required"`
	Name     string        `json:"name" yaml:"name"`
	Duration int           `json:"duration" yaml:"duration" validate:"min=0"`
	Labels   []string      `json:"labels" yaml:"labels"`
	After    []AfterRecord `json:"after" yaml:"after" validate:"dive"`
}

// AfterRecord is an inline predecessor reference on a task.
type AfterRecord struct {
	Task string `json:"task" yaml:"task" validate:"required"`
	Type string `json:"type" yaml:"type" validate:"omitempty,relation"`
	Lag  int    `json:"lag" yaml:"lag"`
}

// LinkRecord is a persisted relationship: Successor depends on Predecessor.
type LinkRecord struct {
	Predecessor string `json:"predecessor" yaml:"predecessor" validate:"required"`
	Successor   string `json:"successor" yaml:"successor" validate:"required"`
	Type        string `json:"type" yaml:"type" validate:"omitempty,relation"`
	Lag         int    `json:"lag" yaml:"lag"`
}

// StartDate parses Start. An empty Start yields the zero time.
func (p *Project) StartDate() (time.Time, error) {
	if p.Start == "" {
		return time.Time{}, nil
	}
	return calendar.ParseDate(p.Start)
}

// Calendar returns the project's working-week policy, zero when unset.
func (p *Project) Calendar() calendar.Policy {
	return calendar.Policy(p.WorkingDaysPerWeek)
}

// GraphLinks flattens explicit link records and inline After references into
// graph links, explicit links first.
func (p *Project) GraphLinks() []graph.Link {
	links := make([]graph.Link, 0, len(p.Links))
	for _, l := range p.Links {
		links = append(links, graph.Link{
			Predecessor: l.Predecessor,
			Successor:   l.Successor,
			Type:        graph.RelationType(l.Type),
			Lag:         l.Lag,
		})
	}
	for _, t := range p.Tasks {
		for _, a := range t.After {
			links = append(links, graph.Link{
				Predecessor: a.Task,
				Successor:   t.ID,
				Type:        graph.RelationType(a.Type),
				Lag:         a.Lag,
			})
		}
	}
	return links
}

// Graph converts the records into a task graph.
func (p *Project) Graph() (*graph.TaskGraph, error) {
	tasks := make([]graph.Task, len(p.Tasks))
	for i, t := range p.Tasks {
		tasks[i] = graph.Task{
			ID:       t.ID,
			Name:     t.Name,
			Duration: t.Duration,
			Labels:   t.Labels,
		}
	}
	return graph.Build(tasks, p.GraphLinks())
}
