// Package prompt holds the generation prompt templates. Templates are
// baked into the binary from templates.yaml.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/template"
	"text/template/parse"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var embeddedTemplates []byte

// ErrMissingSlot is returned when a render call does not supply every slot.
var ErrMissingSlot = errors.New("missing template slot")

// ErrUndeclaredSlot is returned by Parse when a template body references a
// field that is not listed in its slots.
var ErrUndeclaredSlot = errors.New("undeclared template slot")

// Template names.
const (
	Interests         = "interests"
	Personality       = "personality"
	Demographics      = "demographics"
	PersonalInfo      = "personal_info"
	PersonalityTraits = "personality_traits"
	Behavior          = "behavior"
	Motivations       = "motivations"
	Frustrations      = "frustrations"
	Goals             = "goals"
)

// Template is a named prompt with the slots it expects.
type Template struct {
	Name  string   `yaml:"name"`
	Slots []string `yaml:"slots"`
	Text  string   `yaml:"text"`

	tmpl *template.Template
}

// Render fills every slot. Extra values are ignored.
func (t *Template) Render(values map[string]string) (string, error) {
	for _, slot := range t.Slots {
		if _, ok := values[slot]; !ok {
			return "", fmt.Errorf("%s: %w %q", t.Name, ErrMissingSlot, slot)
		}
	}
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, values); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name, err)
	}
	return sb.String(), nil
}

// Set is a collection of templates keyed by name.
type Set struct {
	byName map[string]*Template
}

type file struct {
	Templates []*Template `yaml:"templates"`
}

// Default returns the embedded template set.
func Default() (*Set, error) {
	return Parse(embeddedTemplates)
}

// Parse reads a YAML template document.
func Parse(data []byte) (*Set, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Set{byName: make(map[string]*Template, len(f.Templates))}
	for _, t := range f.Templates {
		if t.Name == "" {
			return nil, errors.New("template without a name")
		}
		if _, dup := s.byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate template %q", t.Name)
		}
		tmpl, err := template.New(t.Name).Option("missingkey=error").Parse(t.Text)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", t.Name, err)
		}
		if tmpl.Tree != nil {
			for _, field := range fields(tmpl.Tree.Root, nil) {
				if !slices.Contains(t.Slots, field) {
					return nil, fmt.Errorf("template %s: %w %q", t.Name, ErrUndeclaredSlot, field)
				}
			}
		}
		t.tmpl = tmpl
		s.byName[t.Name] = t
	}
	return s, nil
}

// fields collects the top-level field names referenced under node.
func fields(node parse.Node, acc []string) []string {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return acc
		}
		for _, c := range n.Nodes {
			acc = fields(c, acc)
		}
	case *parse.ActionNode:
		acc = fields(n.Pipe, acc)
	case *parse.PipeNode:
		if n == nil {
			return acc
		}
		for _, cmd := range n.Cmds {
			for _, arg := range cmd.Args {
				acc = fields(arg, acc)
			}
		}
	case *parse.FieldNode:
		acc = append(acc, n.Ident[0])
	case *parse.IfNode:
		acc = branchFields(&n.BranchNode, acc)
	case *parse.RangeNode:
		acc = branchFields(&n.BranchNode, acc)
	case *parse.WithNode:
		acc = branchFields(&n.BranchNode, acc)
	case *parse.TemplateNode:
		acc = fields(n.Pipe, acc)
	}
	return acc
}

func branchFields(b *parse.BranchNode, acc []string) []string {
	acc = fields(b.Pipe, acc)
	acc = fields(b.List, acc)
	return fields(b.ElseList, acc)
}

// Get returns the named template.
func (s *Set) Get(name string) (*Template, error) {
	t, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}
	return t, nil
}

// Render looks up name and renders it with values.
func (s *Set) Render(name string, values map[string]string) (string, error) {
	t, err := s.Get(name)
	if err != nil {
		return "", err
	}
	return t.Render(values)
}

// Names lists the templates in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.byName))
	for n := range s.byName {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
