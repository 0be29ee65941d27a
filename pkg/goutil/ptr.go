package goutil

import (
	"reflect"
)

func String(s string) *string {
	return &s
}

func Uint32(ui uint32) *uint32 {
	return &ui
}

func Uint64(ui uint64) *uint64 {
	return &ui
}

func Int64(i int64) *int64 {
	return &i
}

func Int(i int) *int {
	return &i
}

func Bool(b bool) *bool {
	return &b
}

func IsNil(i interface{}) bool {
	if i == nil {
		return true
	}
	switch reflect.TypeOf(i).Kind() {
	case reflect.Ptr, reflect.Map, reflect.Array, reflect.Chan, reflect.Slice:
		return reflect.ValueOf(i).IsNil()
	default:
		return false
	}
}

func ContainsStr(arr []string, str string) bool {
	for _, v := range arr {
		if v == str {
			return true
		}
	}
	return false
}
