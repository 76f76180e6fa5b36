// Package schema derives JSON-Schema-like documents from dtoapi type
// metadata.
//
// A [Factory] turns the declared properties of one payload type into a
// [Document]: an object schema whose properties keep their declared order
// (explicit order hints first, ascending) and whose required list names every
// property marked required. Properties without metadata are left out.
// Documents are memoized per type reference.
//
// A [Registry] walks array item references from a root type and records the
// transitive closure of documents under component names chosen by a
// [Namer]:
//
//	provider := meta.NewReflectProvider()
//	ref, _ := provider.RegisterType(User{})
//	reg := schema.NewRegistry(schema.NewFactory(provider))
//	if err := reg.Ensure(ref); err != nil {
//		return err
//	}
//	components := reg.Export()
//
// The default naming strategy uses the short type name; two different types
// with the same component name are reported as a collision rather than
// silently overwritten.
package schema
