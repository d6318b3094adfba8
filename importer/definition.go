package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition describes the workflow configuration of one project.
type Definition struct {
	Company     string                 `yaml:"company"`
	Project     string                 `yaml:"project"`
	Statuses    []StatusDefinition     `yaml:"statuses"`
	Roles       []string               `yaml:"roles,omitempty"`
	Workflows   []WorkflowDefinition   `yaml:"workflows,omitempty"`
	EntityTypes []EntityTypeDefinition `yaml:"entityTypes,omitempty"`
	Boards      []BoardDefinition      `yaml:"boards,omitempty"`
	Members     []MemberDefinition     `yaml:"members,omitempty"`
}

type StatusDefinition struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color,omitempty"`
	Icon  string `yaml:"icon,omitempty"`
	Order int    `yaml:"order,omitempty"`
}

type WorkflowDefinition struct {
	Name        string                 `yaml:"name"`
	Active      bool                   `yaml:"active,omitempty"`
	Transitions []TransitionDefinition `yaml:"transitions"`
}

// TransitionDefinition omits From for initial transitions.
type TransitionDefinition struct {
	From  string   `yaml:"from,omitempty"`
	To    string   `yaml:"to"`
	Roles []string `yaml:"roles,omitempty"`
}

type EntityTypeDefinition struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Workflow string `yaml:"workflow,omitempty"`
}

type BoardDefinition struct {
	Name    string             `yaml:"name"`
	Columns []ColumnDefinition `yaml:"columns"`
}

type ColumnDefinition struct {
	Name     string   `yaml:"name"`
	Statuses []string `yaml:"statuses,omitempty"`
	Default  bool     `yaml:"default,omitempty"`
}

type MemberDefinition struct {
	Member uint64   `yaml:"member"`
	Roles  []string `yaml:"roles"`
}

// Load reads a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

func FromYAML(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

func (d *Definition) ToYAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// Validate checks that every name referenced inside the definition is declared in it.
func (d *Definition) Validate() error {
	if d.Company == "" {
		return fmt.Errorf("definition.company is required")
	}
	if d.Project == "" {
		return fmt.Errorf("definition.project is required")
	}
	statuses, err := nameSet("status", statusNames(d.Statuses))
	if err != nil {
		return err
	}
	roles, err := nameSet("role", d.Roles)
	if err != nil {
		return err
	}
	workflowNames := make([]string, 0, len(d.Workflows))
	active := map[string]bool{}
	for _, wf := range d.Workflows {
		workflowNames = append(workflowNames, wf.Name)
		active[wf.Name] = wf.Active
	}
	workflows, err := nameSet("workflow", workflowNames)
	if err != nil {
		return err
	}

	for _, wf := range d.Workflows {
		for _, t := range wf.Transitions {
			if t.From != "" && !statuses[t.From] {
				return fmt.Errorf("workflow %s: unknown status %s", wf.Name, t.From)
			}
			if !statuses[t.To] {
				return fmt.Errorf("workflow %s: unknown status %s", wf.Name, t.To)
			}
			for _, r := range t.Roles {
				if !roles[r] {
					return fmt.Errorf("workflow %s: unknown role %s", wf.Name, r)
				}
			}
		}
	}
	for _, et := range d.EntityTypes {
		if et.Name == "" || et.Kind == "" {
			return fmt.Errorf("entity type name and kind are required")
		}
		if et.Workflow != "" && !workflows[et.Workflow] {
			return fmt.Errorf("entity type %s: unknown workflow %s", et.Name, et.Workflow)
		}
		if et.Workflow != "" && !active[et.Workflow] {
			return fmt.Errorf("entity type %s: workflow %s is not active", et.Name, et.Workflow)
		}
	}
	for _, b := range d.Boards {
		if b.Name == "" {
			return fmt.Errorf("board name is required")
		}
		for _, c := range b.Columns {
			for _, s := range c.Statuses {
				if !statuses[s] {
					return fmt.Errorf("board %s: unknown status %s", b.Name, s)
				}
			}
		}
	}
	for _, m := range d.Members {
		if m.Member == 0 {
			return fmt.Errorf("member id is required")
		}
		for _, r := range m.Roles {
			if !roles[r] {
				return fmt.Errorf("member %d: unknown role %s", m.Member, r)
			}
		}
	}
	return nil
}

func statusNames(statuses []StatusDefinition) []string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.Name)
	}
	return names
}

func nameSet(what string, names []string) (map[string]bool, error) {
	set := map[string]bool{}
	for _, n := range names {
		if n == "" {
			return nil, fmt.Errorf("%s name is required", what)
		}
		if set[n] {
			return nil, fmt.Errorf("duplicate %s %s", what, n)
		}
		set[n] = true
	}
	return set, nil
}
