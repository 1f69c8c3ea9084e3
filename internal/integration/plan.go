// Package integration serves the project integration plan: phases,
// technical requirements, deliverables, and success criteria. The plan is
// an embedded YAML document rendered as JSON or PDF.
package integration

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed plan.yaml
var planYAML []byte

// Plan is the integration plan document.
type Plan struct {
	Title           string             `yaml:"title" json:"title"`
	Summary         string             `yaml:"summary" json:"summary"`
	Overview        Overview           `yaml:"overview" json:"overview"`
	Requirements    []RequirementGroup `yaml:"requirements" json:"requirements"`
	Phases          []Phase            `yaml:"phases" json:"phases"`
	Deliverables    []ItemGroup        `yaml:"deliverables" json:"deliverables"`
	Reports         []Report           `yaml:"reports" json:"reports"`
	SuccessCriteria []string           `yaml:"success_criteria" json:"success_criteria"`
}

// Overview is the project overview tab.
type Overview struct {
	Description string      `yaml:"description" json:"description"`
	Objectives  []string    `yaml:"objectives" json:"objectives"`
	Scope       []string    `yaml:"scope" json:"scope"`
	Highlights  []Highlight `yaml:"highlights" json:"highlights"`
}

// Highlight is one headline figure.
type Highlight struct {
	Title   string `yaml:"title" json:"title"`
	Value   string `yaml:"value" json:"value"`
	Caption string `yaml:"caption" json:"caption"`
}

// RequirementGroup is a numbered requirements heading.
type RequirementGroup struct {
	Title    string      `yaml:"title" json:"title"`
	Sections []ItemGroup `yaml:"sections" json:"sections"`
}

// ItemGroup is a titled bullet list.
type ItemGroup struct {
	Title string   `yaml:"title" json:"title"`
	Items []string `yaml:"items" json:"items"`
}

// Phase is one implementation phase.
type Phase struct {
	Name         string   `yaml:"name" json:"name"`
	Timeline     string   `yaml:"timeline" json:"timeline"`
	Tasks        []string `yaml:"tasks" json:"tasks"`
	Resources    []string `yaml:"resources" json:"resources"`
	Deliverables []string `yaml:"deliverables" json:"deliverables"`
}

// Report is a recurring project report.
type Report struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

var weeksRe = regexp.MustCompile(`^Weeks? (\d+)(?:-(\d+))?$`)

// Weeks returns the first and last week of the phase timeline.
func (p Phase) Weeks() (first, last int, err error) {
	m := weeksRe.FindStringSubmatch(p.Timeline)
	if m == nil {
		return 0, 0, fmt.Errorf("phase %q: timeline %q is not \"Weeks N-M\"", p.Name, p.Timeline)
	}
	first, _ = strconv.Atoi(m[1])
	last = first
	if m[2] != "" {
		last, _ = strconv.Atoi(m[2])
	}
	if last < first {
		return 0, 0, fmt.Errorf("phase %q: timeline %q ends before it starts", p.Name, p.Timeline)
	}
	return first, last, nil
}

// DurationWeeks is the last week of the final phase.
func (p *Plan) DurationWeeks() int {
	var weeks int
	for _, ph := range p.Phases {
		if _, last, err := ph.Weeks(); err == nil && last > weeks {
			weeks = last
		}
	}
	return weeks
}

// Validate checks that the plan has a title, at least one phase, and
// phase timelines that are well formed and do not overlap.
func (p *Plan) Validate() error {
	var errs []error
	if p.Title == "" {
		errs = append(errs, errors.New("plan title missing"))
	}
	if len(p.Phases) == 0 {
		errs = append(errs, errors.New("plan has no phases"))
	}
	prevLast := 0
	for _, ph := range p.Phases {
		first, last, err := ph.Weeks()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if first <= prevLast {
			errs = append(errs, fmt.Errorf("phase %q overlaps the previous phase", ph.Name))
		}
		prevLast = last
	}
	return errors.Join(errs...)
}

// Parse decodes and validates a plan document.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse integration plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid integration plan: %w", err)
	}
	return &p, nil
}

// Default returns the embedded plan.
func Default() (*Plan, error) {
	return Parse(planYAML)
}
