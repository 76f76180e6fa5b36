package meta

import (
	"reflect"
	"strconv"
	"strings"
)

// TagName is the struct tag read by ReflectProvider.
const TagName = "dto"

// parseJSONTag parses a struct field's json tag.
// Returns the field name and options (like "omitempty").
func parseJSONTag(tag string) (name string, opts []string) {
	if tag == "" {
		return "", nil
	}
	parts := strings.Split(tag, ",")
	return parts[0], parts[1:]
}

// splitTag splits a dto tag on commas. A backslash escapes the next
// character, so patterns such as `\d{1\,3}` survive.
func splitTag(tag string) []string {
	var (
		parts []string
		cur   strings.Builder
	)
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		switch {
		case c == '\\' && i+1 < len(tag):
			i++
			if tag[i] != ',' {
				cur.WriteByte('\\')
			}
			cur.WriteByte(tag[i])
		case c == ',':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(parts, cur.String())
}

// tagEntry is one key=value pair of a dto tag, kept in tag order.
type tagEntry struct {
	key, value string
}

// parseDTOTag parses the dto struct tag into key-value pairs.
// Supports formats like: dto:"name=id,type=integer,required,maxLength=50".
// Bare keys are boolean flags with value "true".
func parseDTOTag(tag string) []tagEntry {
	var out []tagEntry
	for _, part := range splitTag(tag) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, "="); idx > 0 {
			out = append(out, tagEntry{
				key:   strings.TrimSpace(part[:idx]),
				value: strings.TrimSpace(part[idx+1:]),
			})
			continue
		}
		out = append(out, tagEntry{key: part, value: "true"})
	}
	return out
}

// propertyFromField builds PropertyMeta for a struct field. ok is false
// when the field carries no dto tag or is tagged "-".
func propertyFromField(field reflect.StructField) (pm *PropertyMeta, ok bool) {
	tag, found := field.Tag.Lookup(TagName)
	if !found || tag == "-" {
		return nil, false
	}
	pm = &PropertyMeta{}
	if jsonName, _ := parseJSONTag(field.Tag.Get("json")); jsonName != "" && jsonName != "-" {
		pm.Name = jsonName
	}
	applyDTOTag(pm, parseDTOTag(tag), InferTypeTag(field.Type))
	return pm, true
}

// applyDTOTag applies dto tag entries to pm. Malformed numbers are ignored.
// default and example values are parsed once the type is known, falling
// back to the inferred type tag.
func applyDTOTag(pm *PropertyMeta, entries []tagEntry, inferred string) {
	var deferred []tagEntry
	for _, e := range entries {
		key, value := e.key, e.value
		switch key {
		case "name":
			pm.Name = value
		case "description":
			pm.Description = value
		case "type":
			pm.Type = value
		case "format":
			pm.Format = value
		case "nullable":
			pm.Nullable = value == "true"
		case "required":
			pm.Required = value == "true"
		case "items", "itemsType":
			pm.ItemsType = value
		case "itemsRef":
			pm.ItemsRef = TypeRef(value)
		case "enum":
			values := strings.Split(value, "|")
			pm.Enum = make([]any, len(values))
			for i, v := range values {
				pm.Enum[i] = strings.TrimSpace(v)
			}
		case "enumRef":
			pm.EnumRef = TypeRef(value)
		case "minLength":
			pm.MinLength = parseIntPtr(value)
		case "maxLength":
			pm.MaxLength = parseIntPtr(value)
		case "pattern":
			pm.Pattern = value
		case "minimum", "min":
			pm.Minimum = parseFloatPtr(value)
		case "maximum", "max":
			pm.Maximum = parseFloatPtr(value)
		case "exclusiveMinimum":
			pm.ExclusiveMinimum = value == "true"
		case "exclusiveMaximum":
			pm.ExclusiveMaximum = value == "true"
		case "multipleOf":
			pm.MultipleOf = parseFloatPtr(value)
		case "minItems":
			pm.MinItems = parseIntPtr(value)
		case "maxItems":
			pm.MaxItems = parseIntPtr(value)
		case "uniqueItems", "unique":
			pm.UniqueItems = value == "true"
		case "readOnly":
			b := value == "true"
			pm.ReadOnly = &b
		case "writeOnly":
			b := value == "true"
			pm.WriteOnly = &b
		case "deprecated":
			switch value {
			case "true":
				pm.Deprecated = true
			case "false":
			default:
				pm.Deprecated = true
				pm.DeprecationReason = value
			}
		case "order":
			pm.Order = parseIntPtr(value)
		case "assert":
			addAssert(pm, value)
		case "default", "example":
			deferred = append(deferred, e)
		default:
			if strings.HasPrefix(key, ExtensionPrefix) {
				setExtension(pm, key, parseLiteral(value))
			}
		}
	}
	typeTag := pm.Type
	if typeTag == "" {
		typeTag = inferred
	}
	for _, e := range deferred {
		v := parseTypedValue(e.value, typeTag)
		if e.key == "default" {
			pm.Default = v
		} else {
			pm.Example = v
		}
	}
}

func setExtension(pm *PropertyMeta, key string, value any) {
	if pm.Extensions == nil {
		pm.Extensions = make(map[string]any)
	}
	pm.Extensions[key] = value
}

// addAssert appends an ad hoc rule name to the assert extension list.
func addAssert(pm *PropertyMeta, name string) {
	var list []any
	if existing, ok := pm.Extensions[AssertExtension].([]any); ok {
		list = existing
	}
	setExtension(pm, AssertExtension, append(list, name))
}

func parseIntPtr(value string) *int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &n
}

func parseFloatPtr(value string) *float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseTypedValue parses value according to a type tag, falling back to the raw string.
func parseTypedValue(value, typeTag string) any {
	switch typeTag {
	case TypeInteger:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	case TypeNumber:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	case TypeBoolean:
		return value == "true"
	case TypeString:
		return value
	case "":
		return parseLiteral(value)
	}
	return value
}

// parseLiteral guesses the scalar type of an untyped tag value.
func parseLiteral(value string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
