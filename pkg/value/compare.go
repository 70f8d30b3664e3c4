package value

import (
	"fmt"
	"time"
)

// Compare returns -1, 0, or 1 for a<b, a==b, a>b. It tries a numeric
// comparison first, then a time.Time comparison, then falls back to
// stringified comparison — the same "numeric-first, string-fallback"
// shape as pkg/resource/util/compare.go in the teacher repo, narrowed to
// the fixed set of types this engine ever stores instead of reflect.
func Compare(a, b interface{}) int {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}

	as, bs := fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

// Equal reports whether a and b compare equal under Compare.
func Equal(a, b interface{}) bool {
	return Compare(a, b) == 0
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
