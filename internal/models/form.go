package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field types supported by the intake forms.
const (
	FieldText     = "text"
	FieldNumber   = "number"
	FieldSelect   = "select"
	FieldCheckbox = "checkbox"
)

// Option is one choice of a select field.
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Requirement makes a field required only when a sibling field holds a
// specific value (e.g. stream is required once educational_path = Stream).
type Requirement struct {
	Field  string `yaml:"field" json:"field"`
	Equals string `yaml:"equals" json:"equals"`
}

// Field describes one input of a form step.
type Field struct {
	Name     string       `yaml:"name" json:"name"`
	Label    string       `yaml:"label" json:"label"`
	Type     string       `yaml:"type" json:"type"`
	Required bool         `yaml:"required" json:"required"`
	Integer  bool         `yaml:"integer,omitempty" json:"integer,omitempty"`
	Min      *float64     `yaml:"min,omitempty" json:"min,omitempty"`
	Max      *float64     `yaml:"max,omitempty" json:"max,omitempty"`
	Options  []Option     `yaml:"options,omitempty" json:"options,omitempty"`
	Requires *Requirement `yaml:"requires,omitempty" json:"requires,omitempty"`
}

// Step is one page of a multi-step form. It owns a subset of fields.
type Step struct {
	Title  string  `yaml:"title" json:"title"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// FormSchema defines one complete intake form as configuration.
type FormSchema struct {
	Name  string `yaml:"name" json:"name"`
	Title string `yaml:"title" json:"title"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// FormSet holds all forms known to the application.
type FormSet struct {
	Forms []FormSchema `yaml:"forms" json:"forms"`
}

// LoadFormSchemas reads and parses the forms definition file.
func LoadFormSchemas(path string) (*FormSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read forms file: %w", err)
	}

	var set FormSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to unmarshal forms YAML: %w", err)
	}

	for i := range set.Forms {
		if err := set.Forms[i].check(); err != nil {
			return nil, err
		}
	}
	return &set, nil
}

// Get returns the schema with the given name.
func (s *FormSet) Get(name string) (*FormSchema, bool) {
	for i := range s.Forms {
		if s.Forms[i].Name == name {
			return &s.Forms[i], true
		}
	}
	return nil, false
}

// FieldNames returns every field name the form owns, in step order.
func (f *FormSchema) FieldNames() []string {
	var names []string
	for _, step := range f.Steps {
		for _, fld := range step.Fields {
			names = append(names, fld.Name)
		}
	}
	return names
}

// LookupField finds a field definition anywhere in the form.
func (f *FormSchema) LookupField(name string) (*Field, bool) {
	for si := range f.Steps {
		for fi := range f.Steps[si].Fields {
			if f.Steps[si].Fields[fi].Name == name {
				return &f.Steps[si].Fields[fi], true
			}
		}
	}
	return nil, false
}

func (f *FormSchema) check() error {
	if f.Name == "" {
		return fmt.Errorf("form schema is missing a name")
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("form %q has no steps", f.Name)
	}
	seen := make(map[string]int)
	for si, step := range f.Steps {
		for _, fld := range step.Fields {
			if fld.Name == "" {
				return fmt.Errorf("form %q step %d has a field without a name", f.Name, si)
			}
			if _, dup := seen[fld.Name]; dup {
				return fmt.Errorf("form %q declares field %q twice", f.Name, fld.Name)
			}
			seen[fld.Name] = si
			switch fld.Type {
			case FieldText, FieldNumber, FieldSelect, FieldCheckbox:
			default:
				return fmt.Errorf("form %q field %q has unknown type %q", f.Name, fld.Name, fld.Type)
			}
			// Dependent fields must be collected at or after the field they
			// depend on, so step validators only ever look backwards.
			if fld.Requires != nil {
				owner, ok := seen[fld.Requires.Field]
				if !ok || owner > si {
					return fmt.Errorf("form %q field %q depends on %q which is not collected at or before step %d",
						f.Name, fld.Name, fld.Requires.Field, si)
				}
			}
		}
	}
	return nil
}
