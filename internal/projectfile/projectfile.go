package projectfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joshharrison/critpath/internal/validation"
	"github.com/tidwall/gjson"
	"go.yaml.in/yaml/v3"
)

// ErrUnsupportedFormat is returned for file extensions with no reader.
var ErrUnsupportedFormat = errors.New("unsupported project file format")

// Format identifies a project file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Load reads and validates a project file.
func Load(path string) (*Project, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	p, err := Parse(data, format, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates project data. name is used in HCL diagnostics.
func Parse(data []byte, format Format, name string) (*Project, error) {
	var (
		p   *Project
		err error
	)
	switch format {
	case FormatJSON:
		p, err = parseJSON(data)
	case FormatYAML:
		p, err = parseYAML(data)
	case FormatHCL:
		p, err = parseHCL(data, name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	return p, nil
}

func parseJSON(data []byte) (*Project, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse JSON project: invalid JSON")
	}
	root := gjson.ParseBytes(data)

	p := &Project{
		Name:               root.Get("name").String(),
		Start:              root.Get("start").String(),
		WorkingDaysPerWeek: int(root.Get("working_days_per_week").Int()),
	}

	root.Get("tasks").ForEach(func(_, v gjson.Result) bool {
		tr := TaskRecord{
			ID:       v.Get("id").String(),
			Name:     v.Get("name").String(),
			Duration: int(v.Get("duration").Int()),
		}
		v.Get("labels").ForEach(func(_, l gjson.Result) bool {
			tr.Labels = append(tr.Labels, l.String())
			return true
		})
		v.Get("after").ForEach(func(_, a gjson.Result) bool {
			// "after": ["a", {"task": "b", "type": "SS", "lag": 2}]
			if a.Type == gjson.String {
				tr.After = append(tr.After, AfterRecord{Task: a.String()})
				return true
			}
			tr.After = append(tr.After, AfterRecord{
				Task: a.Get("task").String(),
				Type: a.Get("type").String(),
				Lag:  int(a.Get("lag").Int()),
			})
			return true
		})
		p.Tasks = append(p.Tasks, tr)
		return true
	})

	root.Get("links").ForEach(func(_, v gjson.Result) bool {
		p.Links = append(p.Links, LinkRecord{
			Predecessor: v.Get("predecessor").String(),
			Successor:   v.Get("successor").String(),
			Type:        v.Get("type").String(),
			Lag:         int(v.Get("lag").Int()),
		})
		return true
	})

	return p, nil
}

func parseYAML(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse YAML project: %w", err)
	}
	return &p, nil
}

// hclProjectFile represents the top-level structure of an HCL project file.
type hclProjectFile struct {
	Project *hclProject `hcl:"project,block"`
	Tasks   []*hclTask  `hcl:"task,block"`
	Links   []*hclLink  `hcl:"link,block"`
}

type hclProject struct {
	Name               string `hcl:"name,optional"`
	Start              string `hcl:"start,optional"`
	WorkingDaysPerWeek int    `hcl:"working_days_per_week,optional"`
}

type hclTask struct {
	ID       string      `hcl:"id,label"`
	Name     string      `hcl:"name,optional"`
	Duration int         `hcl:"duration"`
	Labels   []string    `hcl:"labels,optional"`
	After    []*hclAfter `hcl:"after,block"`
}

type hclAfter struct {
	Task string `hcl:"task,label"`
	Type string `hcl:"type,optional"`
	Lag  int    `hcl:"lag,optional"`
}

type hclLink struct {
	Predecessor string `hcl:"predecessor"`
	Successor   string `hcl:"successor"`
	Type        string `hcl:"type,optional"`
	Lag         int    `hcl:"lag,optional"`
}

func parseHCL(data []byte, name string) (*Project, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse HCL project: %w", diags)
	}

	var parsed hclProjectFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode HCL project: %w", diags)
	}

	p := &Project{}
	if parsed.Project != nil {
		p.Name = parsed.Project.Name
		p.Start = parsed.Project.Start
		p.WorkingDaysPerWeek = parsed.Project.WorkingDaysPerWeek
	}
	for _, t := range parsed.Tasks {
		tr := TaskRecord{ID: t.ID, Name: t.Name, Duration: t.Duration, Labels: t.Labels}
		for _, a := range t.After {
			tr.After = append(tr.After, AfterRecord{Task: a.Task, Type: a.Type, Lag: a.Lag})
		}
		p.Tasks = append(p.Tasks, tr)
	}
	for _, l := range parsed.Links {
		p.Links = append(p.Links, LinkRecord{
			Predecessor: l.Predecessor,
			Successor:   l.Successor,
			Type:        l.Type,
			Lag:         l.Lag,
		})
	}
	return p, nil
}
