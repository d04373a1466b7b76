package selfdescribe

import (
	"reflect"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

type fieldMetadata struct {
	YAMLName string          `yaml:"yamlName"`
	Type     string          `yaml:"type"`
	Default  interface{}     `yaml:"default,omitempty"`
	Required bool            `yaml:"required"`
	Fields   []fieldMetadata `yaml:"fields,omitempty"`
}

// getStructMetadata describes the yaml visible fields of t, descending into
// inline and nested structs.
func getStructMetadata(t reflect.Type) []fieldMetadata {
	t = indirectType(t)
	var out []fieldMetadata
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name := getYAMLName(f)
		if name == "-" {
			continue
		}
		if f.Anonymous || strings.Contains(f.Tag.Get("yaml"), ",inline") {
			if indirectKind(f.Type) == reflect.Struct {
				out = append(out, getStructMetadata(f.Type)...)
			}
			continue
		}
		if name == "" {
			continue
		}

		fm := fieldMetadata{
			YAMLName: name,
			Type:     indirectKind(f.Type).String(),
			Default:  getDefault(f),
			Required: getRequired(f),
		}
		if indirectKind(f.Type) == reflect.Struct {
			fm.Fields = getStructMetadata(f.Type)
		}
		out = append(out, fm)
	}
	return out
}

// Only works if there is an explicit "yaml" struct tag
func getYAMLName(f reflect.StructField) string {
	yamlTag := f.Tag.Get("yaml")
	return strings.SplitN(yamlTag, ",", 2)[0]
}

// Assumes config structs use the defaults package
func getDefault(f reflect.StructField) interface{} {
	if getRequired(f) {
		return nil
	}
	defTag := f.Tag.Get("default")
	if defTag == "" {
		return nil
	}
	var out interface{}
	if err := yaml.Unmarshal([]byte(defTag), &out); err != nil {
		return defTag
	}
	return out
}

// Assumes config structs use the validator package
func getRequired(f reflect.StructField) bool {
	for _, v := range strings.Split(f.Tag.Get("validate"), ",") {
		if v == "required" {
			return true
		}
	}
	return false
}

// The kind with any pointer removed
func indirectKind(t reflect.Type) reflect.Kind {
	return indirectType(t).Kind()
}

// The type with any pointers removed
func indirectType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}
