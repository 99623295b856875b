// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FieldRole names what a custom field means to the popup, independent of
// the host plugin's opaque field key.
type FieldRole string

const (
	RoleEnable       FieldRole = "enable"
	RoleStyle        FieldRole = "style"
	RoleGroup        FieldRole = "group"
	RoleHeader       FieldRole = "header"
	RoleImage        FieldRole = "image"
	RoleBody         FieldRole = "body"
	RoleButtonAction FieldRole = "button_action"
	RoleTrigger      FieldRole = "trigger"
	RoleButtonText   FieldRole = "button_text"
)

// Dynamic reports whether the role's value is computed per location
// rather than taken from the table.
func (r FieldRole) Dynamic() bool {
	return r == RoleHeader || r == RoleBody
}

// FieldSpec maps one host field key to its role. Group specs carry child
// specs in Fields; static roles carry their value in Value.
type FieldSpec struct {
	Key    string      `json:"key" yaml:"key" mapstructure:"key"`
	Role   FieldRole   `json:"role" yaml:"role" mapstructure:"role"`
	Value  any         `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	Fields []FieldSpec `json:"fields,omitempty" yaml:"fields,omitempty" mapstructure:"fields"`
}

// FieldValues is the nested key/value object handed to the host's field
// persistence call. Group values are themselves FieldValues.
type FieldValues map[string]any
