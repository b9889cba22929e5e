package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldType is the closed set of input kinds a form field may declare.
type FieldType string

const (
	FieldText           FieldType = "text"
	FieldEmail          FieldType = "email"
	FieldTel            FieldType = "tel"
	FieldTextarea       FieldType = "textarea"
	FieldFile           FieldType = "file"
	FieldSelect         FieldType = "select"
	FieldSelectLocation FieldType = "select_location"
)

var fieldTypes = map[FieldType]struct{}{
	FieldText:           {},
	FieldEmail:          {},
	FieldTel:            {},
	FieldTextarea:       {},
	FieldFile:           {},
	FieldSelect:         {},
	FieldSelectLocation: {},
}

// ParseFieldType resolves a type name from persisted configuration.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := fieldTypes[t]; !ok {
		return "", fmt.Errorf("unknown field type %q", s)
	}
	return t, nil
}

func (t *FieldType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFieldType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Width is a layout hint for renderers.
type Width string

const (
	WidthHalf Width = "half"
	WidthFull Width = "full"
)

func (w *Width) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if Width(s) == WidthHalf {
		*w = WidthHalf
	} else {
		*w = WidthFull
	}
	return nil
}

// FieldDefinition describes one input of a form. ID is the submission key.
type FieldDefinition struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Width       Width     `json:"width,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Options     []string  `json:"options,omitempty"`
}

// RecordKey is the key the field's value is stored under in a SubmissionRecord.
func (f FieldDefinition) RecordKey() string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

// FieldSchema is the ordered field list owned by a named form.
type FieldSchema struct {
	Form   string            `json:"form"`
	Fields []FieldDefinition `json:"fields"`
}

// ParseSchema decodes a JSON field list and checks it for structural errors.
func ParseSchema(form string, data []byte) (FieldSchema, error) {
	var fields []FieldDefinition
	if err := json.Unmarshal(data, &fields); err != nil {
		return FieldSchema{}, err
	}
	schema := FieldSchema{Form: form, Fields: fields}
	if err := schema.Validate(); err != nil {
		return FieldSchema{}, err
	}
	return schema, nil
}

// Validate reports missing or duplicate ids, duplicate record keys and
// select fields without options.
func (s FieldSchema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema has no fields")
	}
	seen := make(map[string]int, len(s.Fields))
	keys := make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		if strings.TrimSpace(f.ID) == "" {
			return fmt.Errorf("field %d has no id", i)
		}
		if f.Type == "" {
			return fmt.Errorf("field %q has no type", f.ID)
		}
		if prev, ok := seen[f.ID]; ok {
			return fmt.Errorf("duplicate field id %q at positions %d and %d", f.ID, prev, i)
		}
		seen[f.ID] = i
		// Records are keyed by label, so two fields may not share one
		if prev, ok := keys[f.RecordKey()]; ok {
			return fmt.Errorf("duplicate field label %q at positions %d and %d", f.RecordKey(), prev, i)
		}
		keys[f.RecordKey()] = i
		if f.Type == FieldSelect && len(f.Options) == 0 {
			return fmt.Errorf("select field %q has no options", f.ID)
		}
	}
	return nil
}
