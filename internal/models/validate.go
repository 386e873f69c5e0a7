// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"blogcms/internal/slug"
)

// Validation limits for post and category fields.
const (
	maxTitleLen        = 300
	maxSlugLen         = 300
	maxContentLen      = 100_000
	maxExcerptLen      = 1_000
	maxCategoryNameLen = 100
	maxDescriptionLen  = 500
)

var errInvalidSlug = validation.NewError(
	"validation_slug_invalid",
	"must contain only lowercase letters, digits, CJK characters and single hyphens",
)

// slugRule accepts empty values (Required handles those) and otherwise
// requires a well-formed slug. Works on string and *string fields.
var slugRule = validation.By(func(value interface{}) error {
	v, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}
	s, _ := v.(string)
	if s == "" || slug.Valid(s) {
		return nil
	}
	return errInvalidSlug
})

// optionalLength limits the rune length of a set Optional[string].
func optionalLength(max int) validation.RuleFunc {
	return func(value interface{}) error {
		o, ok := value.(Optional[string])
		if !ok || o.Value == nil {
			return nil
		}
		if utf8.RuneCountInString(*o.Value) > max {
			return validation.NewError("validation_length_too_long",
				fmt.Sprintf("the length must be no more than %d", max))
		}
		return nil
	}
}

// Optional is a JSON field that distinguishes "absent" from "null".
// Set is false when the key was missing from the payload; Value is nil
// when the key was present with a null value.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns an Optional that explicitly clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON records that the key was present, and its value unless null.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
