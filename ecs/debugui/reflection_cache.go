package debugui

import (
	"fmt"
	"reflect"
	"sync"
)

type FieldInfo struct {
	Name      string
	Type      reflect.Type
	Index     int
	IsPointer bool
}

// FieldValue is a component field rendered as text
type FieldValue struct {
	Name  string
	Value string
}

type ReflectionCache struct {
	mu         sync.RWMutex
	fieldCache map[reflect.Type][]FieldInfo
}

func NewReflectionCache() *ReflectionCache {
	return &ReflectionCache{
		fieldCache: make(map[reflect.Type][]FieldInfo),
	}
}

func (rc *ReflectionCache) GetFields(t reflect.Type) []FieldInfo {
	rc.mu.RLock()
	cached, ok := rc.fieldCache[t]
	rc.mu.RUnlock()
	if ok {
		return cached
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	var fields []FieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			fields = append(fields, FieldInfo{
				Name:      field.Name,
				Type:      field.Type,
				Index:     i,
				IsPointer: field.Type.Kind() == reflect.Ptr,
			})
		}
	}

	rc.fieldCache[t] = fields
	return fields
}

// Describe renders component, a pointer as returned by World.GetComponent, as a
// list of exported fields. Non-struct components yield a single "value" field.
func (rc *ReflectionCache) Describe(component any) []FieldValue {
	val := reflect.ValueOf(component)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return []FieldValue{{Name: "value", Value: fmt.Sprintf("%v", val.Interface())}}
	}

	fields := rc.GetFields(val.Type())
	values := make([]FieldValue, 0, len(fields))
	for _, field := range fields {
		fieldVal := val.Field(field.Index)
		var text string
		switch {
		case field.IsPointer && fieldVal.IsNil():
			text = "nil"
		case fieldVal.Kind() == reflect.Slice:
			text = fmt.Sprintf("[%d items]", fieldVal.Len())
		case fieldVal.Kind() == reflect.Map:
			text = fmt.Sprintf("map[%d items]", fieldVal.Len())
		case fieldVal.Kind() == reflect.Func:
			text = "func"
		default:
			text = fmt.Sprintf("%+v", fieldVal.Interface())
		}
		values = append(values, FieldValue{Name: field.Name, Value: text})
	}
	return values
}

var globalReflectionCache = NewReflectionCache()
