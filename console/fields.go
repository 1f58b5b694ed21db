package console

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gym-console/gym"
)

// clearValue typed at a prompt empties an optional field.
const clearValue = "-"

// field is one prompt of a form, bound to a value inside the form being
// edited.
type field struct {
	label string
	hint  string
	get   func() string
	set   func(string) error
}

func textField(label string, p *string) field {
	return field{
		label: label,
		get:   func() string { return *p },
		set: func(s string) error {
			if s == clearValue {
				s = ""
			}
			*p = s
			return nil
		},
	}
}

func intField(label string, p *int) field {
	return field{
		label: label,
		get:   func() string { return strconv.Itoa(*p) },
		set: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("%q is not a whole number", s)
			}
			*p = n
			return nil
		},
	}
}

// optionalIntField edits a count that may be absent, e.g. remaining visits
// of a time based card.
func optionalIntField(label string, p **int) field {
	return field{
		label: label,
		hint:  "- for none",
		get: func() string {
			if *p == nil {
				return ""
			}
			return strconv.Itoa(**p)
		},
		set: func(s string) error {
			if s == clearValue {
				*p = nil
				return nil
			}
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("%q is not a whole number", s)
			}
			*p = &n
			return nil
		},
	}
}

func moneyField(label string, p *float64) field {
	return field{
		label: label,
		get:   func() string { return formatMoney(*p) },
		set: func(s string) error {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("%q is not an amount", s)
			}
			*p = f
			return nil
		},
	}
}

// refField edits the id of another record and shows its name.
func refField(label string, p *int64, name func(int64) string) field {
	return field{
		label: label,
		hint:  "id",
		get: func() string {
			if *p == 0 {
				return ""
			}
			return fmt.Sprintf("%d (%s)", *p, name(*p))
		},
		set: func(s string) error {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("%q is not an id", s)
			}
			*p = id
			return nil
		},
	}
}

func dateField(label string, p *gym.Date) field {
	return field{
		label: label,
		hint:  "YYYY-MM-DD",
		get:   func() string { return p.String() },
		set: func(s string) error {
			d, err := gym.ParseDate(s)
			if err != nil {
				return err
			}
			*p = d
			return nil
		},
	}
}

func minuteField(label string, p *time.Time) field {
	return field{
		label: label,
		hint:  "YYYY-MM-DD HH:mm",
		get:   func() string { return gym.FormatMinute(*p) },
		set: func(s string) error {
			t, err := gym.ParseMinute(s, *p)
			if err != nil {
				return err
			}
			*p = t
			return nil
		},
	}
}

// enumField accepts either the number or the label of one of options.
// optional enums can be cleared back to zero.
func enumField[K ~int](label string, p *K, options []K, optional bool) field {
	hints := make([]string, 0, len(options))
	for _, o := range options {
		hints = append(hints, fmt.Sprintf("%d=%v", int(o), o))
	}
	return field{
		label: label,
		hint:  strings.Join(hints, ", "),
		get: func() string {
			if *p == 0 {
				return ""
			}
			return fmt.Sprint(*p)
		},
		set: func(s string) error {
			if optional && s == clearValue {
				*p = 0
				return nil
			}
			for _, o := range options {
				if s == strconv.Itoa(int(o)) || strings.EqualFold(s, fmt.Sprint(o)) {
					*p = o
					return nil
				}
			}
			return fmt.Errorf("%q is not one of %s", s, strings.Join(hints, ", "))
		},
	}
}
