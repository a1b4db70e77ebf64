package service

import "fmt"

// flagScheme describes how one appliance generation reports its numbered
// error flags.
type flagScheme struct {
	lo, hi int
	key    func(n int) string
	// strict schemes fail decoding when a flag attribute is absent; lenient
	// schemes treat absence as not raised.
	strict bool
	// exact schemes raise on value == 1, others on any nonzero value.
	exact bool
}

var (
	spaErrScheme = flagScheme{
		lo: 1, hi: 9,
		key:    func(n int) string { return fmt.Sprintf("system_err%d", n) },
		strict: true,
		exact:  true,
	}
	spaV01ErrScheme = flagScheme{
		lo: 1, hi: 31,
		key: func(n int) string { return fmt.Sprintf("E%02d", n) },
	}
)

// errorFlags collects the raised error numbers in ascending order.
func errorFlags(attrs map[string]any, scheme flagScheme) ([]int, error) {
	var raised []int
	for n := scheme.lo; n <= scheme.hi; n++ {
		key := scheme.key(n)
		v, ok := attrs[key]
		if !ok {
			if scheme.strict {
				return nil, &MissingAttributeError{Key: key}
			}
			continue
		}
		f, ok := toNumber(v)
		if !ok {
			if scheme.strict {
				return nil, &MissingAttributeError{Key: key}
			}
			continue
		}
		set := f != 0
		if scheme.exact {
			set = f == 1
		}
		if set {
			raised = append(raised, n)
		}
	}
	return raised, nil
}
