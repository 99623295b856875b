// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fields maps popup roles onto the host plugin's custom-field keys
// and builds the field-values object a host persists for one location.
package fields

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/popup-generator/pkg/types"
)

// Input carries the per-location values for dynamic roles.
type Input struct {
	Title       string
	Description string
}

// DefaultTable returns the Mapster popup field table: popup enabled,
// popup style 667, and a popup group with header, featured image, body,
// directions button, click trigger, and button label.
func DefaultTable() []types.FieldSpec {
	return []types.FieldSpec{
		{Key: "field_616a60c610c96", Role: types.RoleEnable, Value: 1},
		{Key: "field_616a145a4f1eb", Role: types.RoleStyle, Value: 667},
		{Key: "field_6168d546268fb", Role: types.RoleGroup, Fields: []types.FieldSpec{
			{Key: "field_6169fc8a6e649", Role: types.RoleHeader},
			{Key: "field_61db0c22f9454", Role: types.RoleImage, Value: "feature-image"},
			{Key: "field_6169fc9c6e64a", Role: types.RoleBody},
			{Key: "field_6169fda56e64f", Role: types.RoleButtonAction, Value: "to-directions"},
			{Key: "field_616a60fd2218f", Role: types.RoleTrigger, Value: "click"},
			{Key: "field_6169fcbc6e64c", Role: types.RoleButtonText, Value: "Zum Händler"},
		}},
	}
}

// Validate checks that table is usable: keys are non-empty and unique,
// exactly one body field exists, at most one header, groups have children,
// and every static leaf carries a value.
func Validate(table []types.FieldSpec) error {
	if len(table) == 0 {
		return fmt.Errorf("field table is empty")
	}
	v := validator{keys: make(map[string]bool)}
	if err := v.walk(table, ""); err != nil {
		return err
	}
	if v.bodies != 1 {
		return fmt.Errorf("field table must contain exactly one %q field, found %d", types.RoleBody, v.bodies)
	}
	if v.headers > 1 {
		return fmt.Errorf("field table contains %d %q fields, at most one allowed", v.headers, types.RoleHeader)
	}
	return nil
}

type validator struct {
	keys    map[string]bool
	bodies  int
	headers int
}

func (v *validator) walk(specs []types.FieldSpec, parent string) error {
	for _, s := range specs {
		if s.Key == "" {
			return fmt.Errorf("field with role %q has no key", s.Role)
		}
		if v.keys[s.Key] {
			return fmt.Errorf("duplicate field key %s", s.Key)
		}
		v.keys[s.Key] = true

		switch {
		case s.Role == types.RoleGroup:
			if len(s.Fields) == 0 {
				return fmt.Errorf("group %s has no fields", s.Key)
			}
			if err := v.walk(s.Fields, s.Key); err != nil {
				return err
			}
		case len(s.Fields) > 0:
			return fmt.Errorf("field %s has children but role %q, want %q", s.Key, s.Role, types.RoleGroup)
		case s.Role == types.RoleBody:
			v.bodies++
		case s.Role == types.RoleHeader:
			v.headers++
		case s.Role == "":
			return fmt.Errorf("field %s has no role", s.Key)
		case s.Value == nil:
			return fmt.Errorf("static field %s (%s) has no value", s.Key, s.Role)
		}
	}
	return nil
}

// Build resolves table against in and returns the nested field values.
// Static roles take their table value; header and body take the title and
// description. The table must pass Validate.
func Build(table []types.FieldSpec, in Input) (types.FieldValues, error) {
	if err := Validate(table); err != nil {
		return nil, err
	}
	return build(table, in), nil
}

func build(specs []types.FieldSpec, in Input) types.FieldValues {
	out := make(types.FieldValues, len(specs))
	for _, s := range specs {
		switch s.Role {
		case types.RoleGroup:
			out[s.Key] = build(s.Fields, in)
		case types.RoleHeader:
			out[s.Key] = in.Title
		case types.RoleBody:
			out[s.Key] = in.Description
		default:
			out[s.Key] = s.Value
		}
	}
	return out
}

// LoadTable reads a YAML field table from path. The file holds a list of
// field specs in the same shape as the popup.fields config key.
func LoadTable(path string) ([]types.FieldSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading field table %s: %w", path, err)
	}
	var table []types.FieldSpec
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing field table %s: %w", path, err)
	}
	if err := Validate(table); err != nil {
		return nil, fmt.Errorf("field table %s: %w", path, err)
	}
	return table, nil
}

// Find returns the key bound to role, searching groups depth-first.
func Find(table []types.FieldSpec, role types.FieldRole) (key string, ok bool) {
	for _, s := range table {
		if s.Role == role {
			return s.Key, true
		}
		if key, ok := Find(s.Fields, role); ok {
			return key, true
		}
	}
	return "", false
}
