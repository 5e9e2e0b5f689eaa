package outcome

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedTemplate is returned for reason templates fmt cannot render cleanly.
	ErrMalformedTemplate = errors.New("malformed reason template")
	// ErrArgumentCount is returned when the template's verbs and the
	// supplied arguments disagree.
	ErrArgumentCount = errors.New("reason argument count mismatch")
)

// TemplateError describes why a reason template could not be resolved.
type TemplateError struct {
	Template string
	Args     int
	Detail   string
	Err      error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("%s: %q with %d args: %s", e.Err, e.Template, e.Args, e.Detail)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// verbs accepted by fmt.Sprintf.
const verbs = "vTtbcdoOqxXUeEfFgGsp"

// formatReason resolves a reason template eagerly. It walks the template
// the way fmt does, counting argument consumption, so that a bad template
// is reported instead of rendered as "%!d(MISSING)".
func formatReason(format string, args []any) (string, error) {
	fail := func(err error, detail string, a ...any) (string, error) {
		return "", &TemplateError{Template: format, Args: len(args), Detail: fmt.Sprintf(detail, a...), Err: err}
	}

	argNum := 0
	reordered := false

	// consume takes one argument for a verb, width or precision.
	consume := func() bool {
		if argNum >= len(args) {
			return false
		}
		argNum++
		return true
	}

	// index parses an explicit "[n]" argument index at format[i].
	index := func(i int) (int, bool) {
		if i >= len(format) || format[i] != '[' {
			return i, true
		}
		end := strings.IndexByte(format[i:], ']')
		if end < 0 {
			return i, false
		}
		n, err := strconv.Atoi(format[i+1 : i+end])
		if err != nil || n < 1 || n > len(args) {
			return i, false
		}
		reordered = true
		argNum = n - 1
		return i + end + 1, true
	}

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		start := i
		i++

		// flags
		for i < len(format) && strings.IndexByte("+-# 0", format[i]) >= 0 {
			i++
		}

		var ok bool
		if i, ok = index(i); !ok {
			return fail(ErrMalformedTemplate, "bad argument index at offset %d", start)
		}

		// width
		if i < len(format) && format[i] == '*' {
			if !consume() {
				return fail(ErrArgumentCount, "missing width argument at offset %d", start)
			}
			i++
		} else {
			for i < len(format) && format[i] >= '0' && format[i] <= '9' {
				i++
			}
		}

		// precision
		if i < len(format) && format[i] == '.' {
			i++
			if i, ok = index(i); !ok {
				return fail(ErrMalformedTemplate, "bad argument index at offset %d", start)
			}
			if i < len(format) && format[i] == '*' {
				if !consume() {
					return fail(ErrArgumentCount, "missing precision argument at offset %d", start)
				}
				i++
			} else {
				for i < len(format) && format[i] >= '0' && format[i] <= '9' {
					i++
				}
			}
		}

		if i, ok = index(i); !ok {
			return fail(ErrMalformedTemplate, "bad argument index at offset %d", start)
		}

		if i >= len(format) {
			return fail(ErrMalformedTemplate, "dangling %% at offset %d", start)
		}
		verb := format[i]
		if verb == '%' {
			continue
		}
		if strings.IndexByte(verbs, verb) < 0 {
			return fail(ErrMalformedTemplate, "unknown verb %%%c at offset %d", verb, start)
		}
		if !consume() {
			return fail(ErrArgumentCount, "missing argument for %%%c at offset %d", verb, start)
		}
	}

	if !reordered && argNum != len(args) {
		return fail(ErrArgumentCount, "template uses %d args", argNum)
	}

	reason := fmt.Sprintf(format, args...)
	if strings.Contains(reason, "%!") && !argsContain(args, "%!") {
		return fail(ErrMalformedTemplate, "argument type does not fit its verb: %s", reason)
	}
	return reason, nil
}

func argsContain(args []any, s string) bool {
	for _, a := range args {
		if strings.Contains(fmt.Sprint(a), s) {
			return true
		}
	}
	return false
}
