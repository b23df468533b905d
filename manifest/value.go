package manifest

// Kind is the shape of a manifest value.
type Kind int

const (
	// Absent is the kind of the zero Value.
	Absent Kind = iota
	// Scalar is a key that appeared once.
	Scalar
	// List is a key that appeared more than once.
	List
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case List:
		return "list"
	default:
		return "absent"
	}
}

// Value is either a single string or an ordered list of strings.
// The zero Value is Absent.
type Value struct {
	kind  Kind
	items []string
}

// ScalarValue returns a Scalar holding s.
func ScalarValue(s string) Value {
	return Value{kind: Scalar, items: []string{s}}
}

// ListValue returns a List holding items in order.
func ListValue(items ...string) Value {
	return Value{kind: List, items: append([]string(nil), items...)}
}

// Kind reports the shape of v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the zero Value.
func (v Value) IsAbsent() bool { return v.kind == Absent }

// Scalar returns the string held by a Scalar. ok is false for lists and
// absent values; no join is attempted.
func (v Value) Scalar() (s string, ok bool) {
	if v.kind != Scalar {
		return "", false
	}
	return v.items[0], true
}

// Strings returns the value as a list: a Scalar becomes a one-element list.
// It returns nil for an absent value.
func (v Value) Strings() []string {
	if v.kind == Absent {
		return nil
	}
	return append([]string(nil), v.items...)
}

// with returns v extended by s, promoting a Scalar to a List.
func (v Value) with(s string) Value {
	switch v.kind {
	case Absent:
		return ScalarValue(s)
	default:
		items := make([]string, len(v.items), len(v.items)+1)
		copy(items, v.items)
		return Value{kind: List, items: append(items, s)}
	}
}
