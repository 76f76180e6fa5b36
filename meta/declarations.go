package meta

import (
	"fmt"
	"maps"
	"os"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/dtoapi/dtoerrors"
)

// Declarations is a Provider backed by a static YAML declaration table:
//
//	defaults:
//	  422: {payload: acme.ValidationError, description: Invalid payload}
//	types:
//	  - ref: acme.User
//	    description: A registered user
//	    responses:
//	      - {status: 200}
//	    properties:
//	      - {name: id, type: integer, required: true}
//	      - {name: name, type: string, nullable: true, maxLength: 50}
//	      - {name: roles, type: array, itemsRef: acme.Role, uniqueItems: true}
//	  - ref: acme.Status
//	    enum: [active, disabled]
//	operations:
//	  - ref: users.get
//	    summary: Fetch a user
//	    responseTypes: [acme.User]
//
// Declarations are immutable once parsed and safe for concurrent use.
type Declarations struct {
	types    map[TypeRef]*TypeMeta
	typeList []TypeRef
	ops      map[OperationRef]*OperationMeta
	opList   []OperationRef
	defaults map[int]DefaultResponse
}

type declarationFile struct {
	Defaults   map[int]DefaultResponse `yaml:"defaults"`
	Types      []declaredType          `yaml:"types"`
	Operations []OperationMeta         `yaml:"operations"`
}

type declaredType struct {
	Ref         TypeRef            `yaml:"ref"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Enum        []any              `yaml:"enum"`
	Responses   []ResponseMeta     `yaml:"responses"`
	Properties  []declaredProperty `yaml:"properties"`
}

type declaredProperty struct {
	// Field is the source field name; defaults to the wire name.
	Field        string `yaml:"field"`
	PropertyMeta `yaml:",inline"`
}

// LoadDeclarations reads and parses a declaration file.
func LoadDeclarations(path string) (*Declarations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("meta: reading declarations: %w", err)
	}
	return ParseDeclarations(data)
}

// ParseDeclarations parses a YAML declaration table.
func ParseDeclarations(data []byte) (*Declarations, error) {
	var file declarationFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &dtoerrors.ConfigError{Option: "declarations", Message: "invalid YAML", Cause: err}
	}

	d := &Declarations{
		types:    make(map[TypeRef]*TypeMeta, len(file.Types)),
		ops:      make(map[OperationRef]*OperationMeta, len(file.Operations)),
		defaults: file.Defaults,
	}
	if d.defaults == nil {
		d.defaults = map[int]DefaultResponse{}
	}

	for _, dt := range file.Types {
		tm, err := dt.typeMeta()
		if err != nil {
			return nil, err
		}
		if _, dup := d.types[tm.Ref]; dup {
			return nil, &dtoerrors.ConfigError{Option: "types", Value: tm.Ref, Message: "type declared twice"}
		}
		d.types[tm.Ref] = tm
		d.typeList = append(d.typeList, tm.Ref)
	}

	for i := range file.Operations {
		op := file.Operations[i]
		if op.Ref == "" {
			return nil, &dtoerrors.ConfigError{Option: fmt.Sprintf("operations[%d].ref", i), Message: "operation ref is empty"}
		}
		if _, dup := d.ops[op.Ref]; dup {
			return nil, &dtoerrors.ConfigError{Option: "operations", Value: op.Ref, Message: "operation declared twice"}
		}
		d.ops[op.Ref] = &op
		d.opList = append(d.opList, op.Ref)
	}
	return d, nil
}

func (dt declaredType) typeMeta() (*TypeMeta, error) {
	if dt.Ref == "" {
		return nil, &dtoerrors.ConfigError{Option: "types.ref", Message: "type ref is empty"}
	}
	tm := &TypeMeta{Ref: dt.Ref, Name: dt.Name, Description: dt.Description}
	if dt.Enum != nil {
		tm.EnumValues = dt.Enum
	}
	for _, r := range dt.Responses {
		if r.Payload == "" {
			r.Payload = dt.Ref
		}
		tm.Responses = append(tm.Responses, r)
	}

	seen := make(map[string]bool, len(dt.Properties))
	for i, dp := range dt.Properties {
		field := dp.Field
		if field == "" {
			field = dp.Name
		}
		if field == "" {
			return nil, &dtoerrors.ConfigError{
				Option:  fmt.Sprintf("%s.properties[%d]", dt.Ref, i),
				Message: "property needs a field or a name",
			}
		}
		pm := dp.PropertyMeta
		wire := pm.WireName(field)
		if seen[wire] {
			return nil, &dtoerrors.ConfigError{
				Option:  fmt.Sprintf("%s.properties[%d]", dt.Ref, i),
				Value:   wire,
				Message: "wire name already used",
			}
		}
		seen[wire] = true
		tm.Properties = append(tm.Properties, Property{
			Field: FieldDescriptor{Name: field},
			Meta:  &pm,
		})
	}
	return tm, nil
}

// DescribeType implements Provider.
func (d *Declarations) DescribeType(ref TypeRef) (*TypeMeta, error) {
	tm, ok := d.types[ref]
	if !ok {
		return nil, dtoerrors.NewUnknownTypeError(string(ref))
	}
	return tm, nil
}

// DescribeOperation implements Provider.
func (d *Declarations) DescribeOperation(ref OperationRef) (*OperationMeta, error) {
	op, ok := d.ops[ref]
	if !ok {
		return nil, dtoerrors.NewUnknownOperationError(string(ref))
	}
	return op, nil
}

// Types returns the declared type references in declaration order.
func (d *Declarations) Types() []TypeRef {
	return append([]TypeRef(nil), d.typeList...)
}

// Operations returns the declared operation references in declaration order.
func (d *Declarations) Operations() []OperationRef {
	return append([]OperationRef(nil), d.opList...)
}

// DefaultResponses returns the declared global default tier.
func (d *Declarations) DefaultResponses() map[int]DefaultResponse {
	return maps.Clone(d.defaults)
}

var _ Provider = (*Declarations)(nil)
