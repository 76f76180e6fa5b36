package validate

import (
	"reflect"

	"github.com/erraggy/dtoapi/constraint"
	"github.com/erraggy/dtoapi/meta"
)

// PropertyRules are the rules of one declared property.
type PropertyRules struct {
	// Name is the wire name.
	Name     string
	Field    meta.FieldDescriptor
	Required bool
	Rules    []constraint.Rule
}

// Profile is the validation rule set of one payload type. Undeclared
// properties carry no rules and are left out.
type Profile struct {
	Ref        meta.TypeRef
	GoType     reflect.Type
	Properties []PropertyRules
}

// Property returns the rules of the property with wire name name.
func (p *Profile) Property(name string) (PropertyRules, bool) {
	for _, prop := range p.Properties {
		if prop.Name == name {
			return prop, true
		}
	}
	return PropertyRules{}, false
}

func buildProfile(tm *meta.TypeMeta, m *constraint.Mapper) *Profile {
	p := &Profile{Ref: tm.Ref, GoType: tm.GoType}
	for _, prop := range tm.Properties {
		if !prop.Declared() {
			continue
		}
		p.Properties = append(p.Properties, PropertyRules{
			Name:     prop.Meta.WireName(prop.Field.Name),
			Field:    prop.Field,
			Required: prop.Meta.Required,
			Rules:    m.Map(prop.Field, prop.Meta),
		})
	}
	return p
}
