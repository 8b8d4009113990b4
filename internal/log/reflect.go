// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/iancoleman/strcase"
)

// Redacted replaces the value of any field tagged `log:"secret"`.
const Redacted = "[REDACTED]"

// Struct logs the exported fields of a struct (or pointer to one) at debug
// level, using snake_case keys. Fields tagged `log:"-"` are skipped and
// fields tagged `log:"secret"` are redacted when non-empty.
func (l Logger) Struct(ctx context.Context, msg string, v any) {
	// This is expensive; bail out if we don't need it.
	if !l.Enabled(ctx, slog.LevelDebug) {
		return
	}

	val := realValue(reflect.ValueOf(v))
	if val.Kind() != reflect.Struct {
		return
	}
	l.Log(ctx, slog.LevelDebug, msg, StructAttrs(val.Interface())...)
}

// StructAttrs converts the exported fields of a struct into slog attributes.
func StructAttrs(v any) []slog.Attr {
	val := realValue(reflect.ValueOf(v))
	if val.Kind() != reflect.Struct {
		return nil
	}
	return reflectAttrs(val)
}

func reflectAttrs(val reflect.Value) []slog.Attr {
	typ := val.Type()
	var attrs []slog.Attr
	for i := range typ.NumField() {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}

		name := strcase.ToSnake(f.Name)
		switch f.Tag.Get("log") {
		case "-":
			continue
		case "secret":
			if !val.Field(i).IsZero() {
				attrs = append(attrs, slog.String(name, Redacted))
			}
			continue
		}

		attrs = append(attrs, reflectAttr(name, realValue(val.Field(i)))...)
	}
	return attrs
}

func reflectAttr(name string, val reflect.Value) []slog.Attr {
	// Ignore zero values to keep the log cleaner.
	if val.Kind() == reflect.Invalid || val.IsZero() {
		return nil
	}

	switch v := val.Interface().(type) {
	case time.Duration:
		return []slog.Attr{slog.Duration(name, v)}
	case []byte:
		return []slog.Attr{slog.String(name, string(v))}
	case fmt.Stringer:
		return []slog.Attr{slog.String(name, v.String())}
	}

	if val.Kind() == reflect.Struct {
		as := reflectAttrs(val)
		if len(as) == 0 {
			return nil
		}

		cpy := make([]any, len(as))
		for i, a := range as {
			cpy[i] = a
		}
		return []slog.Attr{slog.Group(name, cpy...)}
	}

	return []slog.Attr{slog.Any(name, val.Interface())}
}

func realValue(val reflect.Value) reflect.Value {
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return reflect.Value{}
		}
		val = val.Elem()
	}
	return val
}
