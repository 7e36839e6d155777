package sqlite

import (
	"reflect"
	"sync"
)

// ExtractDBColumns extracts all column names from struct "db" tags.
// It handles embedded structs (like entity.Catalog) recursively.
// Called once at repository construction, so reflection cost is fine.
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsForType(reflect.TypeOf(zero))
}

// StructToMap converts an entity into a column->value map using its
// "db" tags. Embedded structs are flattened.
func StructToMap(entity any) map[string]any {
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	out := make(map[string]any)
	fillMap(v, out)
	return out
}

func fillMap(v reflect.Value, out map[string]any) {
	t := v.Type()
	for _, f := range fieldsForType(t) {
		fv := v.Field(f.index)
		if f.isEmbedded {
			for fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					fv = reflect.Value{}
					break
				}
				fv = fv.Elem()
			}
			if fv.IsValid() {
				fillMap(fv, out)
			}
			continue
		}
		out[f.dbTag] = fv.Interface()
	}
}

// fieldInfo contains pre-computed metadata about a struct field.
type fieldInfo struct {
	index      int
	dbTag      string
	isEmbedded bool
}

// typeCache caches per-type field metadata (map[reflect.Type][]fieldInfo).
var typeCache sync.Map

func fieldsForType(t reflect.Type) []fieldInfo {
	if cached, ok := typeCache.Load(t); ok {
		return cached.([]fieldInfo)
	}

	var fields []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			fields = append(fields, fieldInfo{index: i, isEmbedded: true})
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		fields = append(fields, fieldInfo{index: i, dbTag: tag})
	}

	typeCache.Store(t, fields)
	return fields
}

func columnsForType(t reflect.Type) []string {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for _, f := range fieldsForType(t) {
		if f.isEmbedded {
			cols = append(cols, columnsForType(t.Field(f.index).Type)...)
			continue
		}
		cols = append(cols, f.dbTag)
	}
	return cols
}
