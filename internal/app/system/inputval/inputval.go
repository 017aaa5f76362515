// Package inputval validates form input structs using declarative tags.
//
// Fields declare their rules in a `validate` tag and a display name in a
// `label` tag:
//
//	type createRoleInput struct {
//	    Name        string `validate:"required,max=50" label:"Role name"`
//	    Description string `validate:"max=500" label:"Description"`
//	}
//
//	if result := inputval.Validate(input); result.HasErrors() {
//	    renderWithError(result.First())
//	}
//
// Supported rules: required, max=N, min=N, email. Only string fields are
// validated; the zero rule set passes everything.
package inputval

import (
	"fmt"
	"net/mail"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Result collects validation failures in field declaration order.
type Result struct {
	Errors []string
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first failure message, or "" when validation passed.
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

// Validate checks every tagged string field of the struct v.
// Non-struct values and non-string fields are ignored.
func Validate(v any) Result {
	var res Result

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return res
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		rules := field.Tag.Get("validate")
		if rules == "" || field.Type.Kind() != reflect.String {
			continue
		}

		label := field.Tag.Get("label")
		if label == "" {
			label = field.Name
		}
		value := rv.Field(i).String()

		for _, rule := range strings.Split(rules, ",") {
			if msg := check(rule, label, value); msg != "" {
				res.Errors = append(res.Errors, msg)
				break // one message per field is enough
			}
		}
	}
	return res
}

func check(rule, label, value string) string {
	switch {
	case rule == "required":
		if strings.TrimSpace(value) == "" {
			return fmt.Sprintf("%s is required.", label)
		}
	case strings.HasPrefix(rule, "max="):
		n, err := strconv.Atoi(rule[len("max="):])
		if err == nil && utf8.RuneCountInString(value) > n {
			return fmt.Sprintf("%s must be at most %d characters.", label, n)
		}
	case strings.HasPrefix(rule, "min="):
		n, err := strconv.Atoi(rule[len("min="):])
		if err == nil && value != "" && utf8.RuneCountInString(value) < n {
			return fmt.Sprintf("%s must be at least %d characters.", label, n)
		}
	case rule == "email":
		if value != "" && !IsValidEmail(value) {
			return fmt.Sprintf("%s must be a valid email address.", label)
		}
	}
	return ""
}

// IsValidEmail reports whether s is a plain RFC 5322 address.
// Display-name forms ("Jane <jane@example.com>") are rejected: stored
// emails must be bare addresses.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}
