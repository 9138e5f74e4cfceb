// Package validate checks request payloads against `validate` struct tags.
//
// Rules are comma-separated:
//
//	required            must not be zero or blank; a nil pointer is missing, a pointer to 0 is not
//	nullable            an empty value skips the remaining rules
//	email               well-formed email address
//	url                 absolute http or https URL
//	date                YYYY-MM-DD or RFC3339
//	decimal             parses as a decimal number
//	min=N / max=N       numbers compare by value, strings by rune count
//	gte=N / lte=N       numeric bounds
//	in=a,b,c            one of the listed values
//	confirmed           equals the sibling field <name>_confirmation
//
// Numeric rules compare through shopspring/decimal, so a price of 99999999.99
// passes lte=99999999.99 exactly. Only the first failing rule of a field is
// reported.
//
//	type StockUpdate struct {
//	    Mode     string `json:"mode"     validate:"required,in=set,delta"`
//	    Quantity *int   `json:"quantity" validate:"required"`
//	}
package validate

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type rule struct {
	name  string
	param string
}

type fieldRules struct {
	index    int
	name     string
	nullable bool
	rules    []rule
}

// target is the value under test with the context some rules need.
type target struct {
	name   string
	value  reflect.Value
	parent reflect.Value
}

type checker func(t target, param string) string

var checkers = map[string]checker{
	"email":     checkEmail,
	"url":       checkURL,
	"date":      checkDate,
	"decimal":   checkDecimal,
	"min":       checkMin,
	"max":       checkMax,
	"gte":       checkGte,
	"lte":       checkLte,
	"in":        checkIn,
	"confirmed": checkConfirmed,
}

var plans sync.Map // reflect.Type -> []fieldRules

// Struct validates the tagged exported fields of v and returns field name
// to message. An empty map means v is valid.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errs
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}

	for _, fr := range planFor(rv.Type()) {
		value := rv.Field(fr.index)
		if isBlank(value) && fr.nullable {
			continue
		}
		if msg := fr.check(value, rv); msg != "" {
			errs[fr.name] = msg
		}
	}
	return errs
}

// HasErrors reports whether Struct found anything.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func (fr fieldRules) check(value, parent reflect.Value) string {
	for _, r := range fr.rules {
		if r.name == "required" {
			if isBlank(value) {
				return fmt.Sprintf("The %s field is required.", fr.name)
			}
			continue
		}
		t := target{name: fr.name, value: indirect(value), parent: parent}
		if !t.value.IsValid() {
			continue
		}
		if msg := checkers[r.name](t, r.param); msg != "" {
			return msg
		}
	}
	return ""
}

func planFor(rt reflect.Type) []fieldRules {
	if cached, ok := plans.Load(rt); ok {
		return cached.([]fieldRules)
	}
	var plan []fieldRules
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag := f.Tag.Get("validate")
		if tag == "" || !f.IsExported() {
			continue
		}
		fr := fieldRules{index: i, name: jsonName(f)}
		for _, r := range parseRules(tag) {
			if r.name == "nullable" {
				fr.nullable = true
				continue
			}
			if r.name != "required" && checkers[r.name] == nil {
				panic(fmt.Sprintf("validate: unknown rule %q on %s.%s", r.name, rt.Name(), f.Name))
			}
			fr.rules = append(fr.rules, r)
		}
		plan = append(plan, fr)
	}
	plans.Store(rt, plan)
	return plan
}

// parseRules splits a tag on commas. An in= list keeps absorbing parts
// until one names a known rule: "in=set,delta,max=5" is two rules.
func parseRules(tag string) []rule {
	var out []rule
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, param, _ := strings.Cut(part, "=")
		if n := len(out); n > 0 && out[n-1].name == "in" && !knownRule(name) {
			out[n-1].param += "," + part
			continue
		}
		out = append(out, rule{name: name, param: param})
	}
	return out
}

func knownRule(name string) bool {
	if name == "required" || name == "nullable" {
		return true
	}
	_, ok := checkers[name]
	return ok
}

// ── Rules ────────────────────────────────────────────────────────────────────

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func checkEmail(t target, _ string) string {
	if !emailRE.MatchString(text(t.value)) {
		return fmt.Sprintf("The %s must be a valid email address.", t.name)
	}
	return ""
}

func checkURL(t target, _ string) string {
	u, err := url.ParseRequestURI(text(t.value))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Sprintf("The %s must be a valid URL.", t.name)
	}
	return ""
}

func checkDate(t target, _ string) string {
	if _, err := ParseDate(text(t.value)); err != nil {
		return fmt.Sprintf("The %s is not a valid date.", t.name)
	}
	return ""
}

func checkDecimal(t target, _ string) string {
	if _, ok := number(t.value); !ok {
		return fmt.Sprintf("The %s must be a number.", t.name)
	}
	return ""
}

func checkMin(t target, param string) string {
	limit := bound(param)
	if n, ok := numericField(t.value); ok {
		if n.LessThan(limit) {
			return fmt.Sprintf("The %s must be at least %s.", t.name, param)
		}
		return ""
	}
	if int64(utf8.RuneCountInString(text(t.value))) < limit.IntPart() {
		return fmt.Sprintf("The %s must be at least %s characters.", t.name, param)
	}
	return ""
}

func checkMax(t target, param string) string {
	limit := bound(param)
	if n, ok := numericField(t.value); ok {
		if n.GreaterThan(limit) {
			return fmt.Sprintf("The %s must not be greater than %s.", t.name, param)
		}
		return ""
	}
	if int64(utf8.RuneCountInString(text(t.value))) > limit.IntPart() {
		return fmt.Sprintf("The %s must not exceed %s characters.", t.name, param)
	}
	return ""
}

func checkGte(t target, param string) string {
	n, ok := number(t.value)
	if !ok || n.LessThan(bound(param)) {
		return fmt.Sprintf("The %s must be greater than or equal to %s.", t.name, param)
	}
	return ""
}

func checkLte(t target, param string) string {
	n, ok := number(t.value)
	if !ok || n.GreaterThan(bound(param)) {
		return fmt.Sprintf("The %s must be less than or equal to %s.", t.name, param)
	}
	return ""
}

func checkIn(t target, param string) string {
	s := text(t.value)
	for _, opt := range strings.Split(param, ",") {
		if s == strings.TrimSpace(opt) {
			return ""
		}
	}
	return fmt.Sprintf("The selected %s is invalid.", t.name)
}

func checkConfirmed(t target, _ string) string {
	want := t.name + "_confirmation"
	rt := t.parent.Type()
	for i := 0; i < rt.NumField(); i++ {
		if jsonName(rt.Field(i)) == want && text(indirect(t.parent.Field(i))) == text(t.value) {
			return ""
		}
	}
	return fmt.Sprintf("The %s confirmation does not match.", t.name)
}

// ParseDate accepts YYYY-MM-DD or RFC3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as date", s)
}

// ── Reflection helpers ───────────────────────────────────────────────────────

var decimalType = reflect.TypeOf(decimal.Decimal{})

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isBlank(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool, reflect.Struct:
		return false
	}
	if v.CanInt() {
		return v.Int() == 0
	}
	if v.CanUint() {
		return v.Uint() == 0
	}
	if v.CanFloat() {
		return v.Float() == 0
	}
	return false
}

// numericField reports v as a number only when its Go type is numeric.
// Strings holding digits still get length semantics under min and max.
func numericField(v reflect.Value) (decimal.Decimal, bool) {
	if v.Kind() == reflect.String {
		return decimal.Decimal{}, false
	}
	return number(v)
}

func number(v reflect.Value) (decimal.Decimal, bool) {
	switch {
	case v.Type() == decimalType:
		return v.Interface().(decimal.Decimal), true
	case v.CanInt():
		return decimal.NewFromInt(v.Int()), true
	case v.CanUint():
		return decimal.RequireFromString(strconv.FormatUint(v.Uint(), 10)), true
	case v.CanFloat():
		return decimal.NewFromFloat(v.Float()), true
	case v.Kind() == reflect.String:
		d, err := decimal.NewFromString(strings.TrimSpace(v.String()))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

func bound(param string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(param))
	if err != nil {
		panic(fmt.Sprintf("validate: bad numeric parameter %q", param))
	}
	return d
}

func text(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	if v.Kind() == reflect.String {
		return v.String()
	}
	return fmt.Sprint(v.Interface())
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}
