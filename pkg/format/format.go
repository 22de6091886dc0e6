package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Empty is printed in place of missing values.
const Empty = "-"

// Layouts used when printing temporal values.
const (
	DateLayout     = "Jan 2, 2006"
	DateTimeLayout = "Jan 2, 2006 15:04"
	DayLayout      = "Mon Jan 2 2006"
)

var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Formatter prints field values for a language. The zero value is not usable;
// construct with New.
type Formatter struct {
	tag      language.Tag
	printer  *message.Printer
	currency currency.Unit
	location *time.Location
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithLanguage sets the language used for digit grouping.
func WithLanguage(tag language.Tag) Option {
	return func(f *Formatter) {
		f.tag = tag
	}
}

// WithCurrency sets the currency used when a field declares none.
func WithCurrency(code string) Option {
	return func(f *Formatter) {
		if unit, err := currency.ParseISO(strings.TrimSpace(code)); err == nil {
			f.currency = unit
		}
	}
}

// WithLocation sets the zone dates are printed in.
func WithLocation(loc *time.Location) Option {
	return func(f *Formatter) {
		if loc != nil {
			f.location = loc
		}
	}
}

// New returns a Formatter defaulting to English, USD and UTC.
func New(options ...Option) *Formatter {
	f := &Formatter{
		tag:      language.English,
		currency: currency.USD,
		location: time.UTC,
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	f.printer = message.NewPrinter(f.tag)
	return f
}

var defaultFormatter = New()

// Default returns the shared English formatter.
func Default() *Formatter {
	return defaultFormatter
}

// Cell stringifies a table cell: nil prints as "-", anything else uses
// fmt.Sprint without locale handling.
func Cell(value any) string {
	if value == nil {
		return Empty
	}
	return fmt.Sprint(value)
}

// Number prints value with digit grouping. Non numeric values fall back to
// Generic.
func (f *Formatter) Number(value any) string {
	n, ok := ToFloat(value)
	if !ok {
		return f.Generic(value)
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return f.printer.Sprintf("%d", int64(n))
	}
	return f.printer.Sprintf("%.2f", n)
}

// Currency prints value as "<ISO> 1,234.50". code overrides the formatter's
// default currency when it is a valid ISO 4217 code.
func (f *Formatter) Currency(value any, code string) string {
	n, ok := ToFloat(value)
	if !ok {
		return f.Generic(value)
	}
	unit := f.currency
	if parsed, err := currency.ParseISO(strings.TrimSpace(code)); err == nil {
		unit = parsed
	}
	return unit.String() + " " + f.printer.Sprintf("%.2f", n)
}

// Percent prints a value already expressed in percent units.
func (f *Formatter) Percent(value any) string {
	n, ok := ToFloat(value)
	if !ok {
		return f.Generic(value)
	}
	if n == math.Trunc(n) {
		return f.printer.Sprintf("%d", int64(n)) + "%"
	}
	return f.printer.Sprintf("%.1f", n) + "%"
}

// Date prints the date portion of value.
func (f *Formatter) Date(value any) string {
	t, ok := ParseTime(value)
	if !ok {
		return f.Generic(value)
	}
	return t.In(f.location).Format(DateLayout)
}

// DateTime prints value with minutes precision.
func (f *Formatter) DateTime(value any) string {
	t, ok := ParseTime(value)
	if !ok {
		return f.Generic(value)
	}
	return t.In(f.location).Format(DateTimeLayout)
}

// Day prints the calendar bucket label for value.
func (f *Formatter) Day(t time.Time) string {
	return t.In(f.location).Format(DayLayout)
}

// Location returns the zone dates are printed in.
func (f *Formatter) Location() *time.Location {
	return f.location
}

// Generic prints any value without currency awareness. Missing values print
// as "-", booleans as Yes/No and timestamps as date-times.
func (f *Formatter) Generic(value any) string {
	switch v := value.(type) {
	case nil:
		return Empty
	case string:
		if strings.TrimSpace(v) == "" {
			return Empty
		}
		return v
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case time.Time:
		if v.IsZero() {
			return Empty
		}
		return v.In(f.location).Format(DateTimeLayout)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, f.Generic(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// ParseTime accepts time.Time values and common ISO 8601 strings.
func ParseTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return time.Time{}, false
		}
		for _, layout := range parseLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ToFloat converts numeric values and numeric strings to float64.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// Truthy mirrors the loose truthiness used by the card renderers: nil, false,
// zero numbers and blank strings are falsy.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if n, ok := ToFloat(value); ok {
		return n != 0 && !math.IsNaN(n)
	}
	return true
}
