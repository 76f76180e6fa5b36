// Package dtoapi derives API contracts from the metadata of payload types.
//
// A payload type is described once, by struct tags or by a YAML declaration
// file, and dtoapi derives from that description everything an API needs
// to agree on with its clients:
//
//   - response: which payload type answers which HTTP status, merged from
//     method-level declarations, type-level declarations and global defaults
//   - normalize: JSON-ready trees from arbitrary Go values
//   - schema: ordered JSON schema documents, named and collected into a
//     registry of components
//   - constraint: validation rules for each declared property
//   - validate: execution of those rules against structs and decoded JSON
//   - openapi: an OpenAPI 3.1 document assembled from routed operations
//
// # Metadata
//
// Every engine reads metadata through meta.Provider. Two providers ship
// with the module. meta.ReflectProvider reads `dto:"..."` struct tags:
//
//	type User struct {
//		ID    int64    `json:"id" dto:"required,minimum=1"`
//		Email string   `json:"email" dto:"required,format=email"`
//		Roles []Role   `json:"roles" dto:"uniqueItems"`
//	}
//
//	p := meta.NewReflectProvider()
//	ref, err := p.RegisterType(User{})
//
// meta.Declarations reads the same metadata from YAML, which suits
// tooling that has no access to the Go types:
//
//	types:
//	  - ref: acme.User
//	    properties:
//	      - {name: id, type: integer, required: true, minimum: 1}
//	operations:
//	  - ref: users.get
//	    responseTypes: [acme.User]
//
// # Schemas
//
//	registry := schema.NewRegistry(schema.NewFactory(p))
//	if err := registry.Ensure(ref); err != nil {
//		return err
//	}
//	components := registry.Export()
//
// # Responses
//
//	resolver := response.New(p, map[int]meta.DefaultResponse{
//		500: {Payload: "acme.Error"},
//	})
//	table, err := resolver.ResolveOperation("users.get")
//
// # Validation
//
//	v := validate.New(p)
//	violations, err := v.ValidateStruct(user)
//	if err != nil {
//		return err // unknown or underivable type
//	}
//	return violations.Err()
//
// # Errors
//
// Fatal conditions are reported with the sentinels of the dtoerrors
// package and can be matched with errors.Is. Conditions a derivation can
// recover from, such as an unresolvable nested reference, are logged
// through the component's meta.Logger and skipped.
//
// # Command line
//
// The dtoapi command exposes the engines over a declaration file:
//
//	dtoapi schema declarations.yaml acme.User
//	dtoapi responses declarations.yaml users.get
//	dtoapi openapi declarations.yaml --format yaml --route "GET /users/{id}=users.get"
//	dtoapi validate declarations.yaml acme.User payload.json
//	dtoapi normalize payload.json
//	dtoapi serve declarations.yaml
//	dtoapi mcp declarations.yaml
package dtoapi
