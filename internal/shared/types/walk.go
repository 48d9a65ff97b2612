package types

import "reflect"

var capabilityType = reflect.TypeOf((*Capability)(nil))

// WalkCapabilities calls visit for every non-nil *Capability reachable from v
// through exported struct fields, slices, arrays, maps and interfaces.
func WalkCapabilities(v any, visit func(*Capability)) {
	walk(reflect.ValueOf(v), visit)
}

func walk(v reflect.Value, visit func(*Capability)) {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return
		}
		if v.Type() == capabilityType {
			visit(v.Interface().(*Capability))
			return
		}
		walk(v.Elem(), visit)
	case reflect.Interface:
		if !v.IsNil() {
			walk(v.Elem(), visit)
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if t.Field(i).IsExported() {
				walk(v.Field(i), visit)
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			walk(v.Index(i), visit)
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			walk(iter.Value(), visit)
		}
	}
}
