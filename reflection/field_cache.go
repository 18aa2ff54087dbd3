package reflection

import (
	"reflect"
	"strings"
	"sync"
)

// injectTag marks struct fields filled by the container.
const injectTag = "inject"

// fieldInfo stores metadata about an injectable struct field.
type fieldInfo struct {
	index    int
	name     string
	typ      reflect.Type
	roleName string
}

// fieldCache caches injectable field metadata per struct type.
type fieldCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]fieldInfo
}

func newFieldCache() *fieldCache {
	return &fieldCache{
		fields: make(map[reflect.Type][]fieldInfo),
	}
}

// get returns the injectable fields of the struct type typ.
func (fc *fieldCache) get(typ reflect.Type) []fieldInfo {
	fc.mu.RLock()
	fields, exists := fc.fields[typ]
	fc.mu.RUnlock()
	if exists {
		return fields
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Double-check after acquiring write lock
	if fields, exists = fc.fields[typ]; exists {
		return fields
	}

	fields = make([]fieldInfo, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag, ok := field.Tag.Lookup(injectTag)
		if !ok || !field.IsExported() {
			continue
		}
		roleName, _, _ := strings.Cut(tag, ",")
		fields = append(fields, fieldInfo{
			index:    i,
			name:     field.Name,
			typ:      field.Type,
			roleName: strings.TrimSpace(roleName),
		})
	}

	fc.fields[typ] = fields
	return fields
}
