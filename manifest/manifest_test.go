package manifest

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const example = `name=Foo Plugin
version=1.0
uuid=123e4567-e89b-12d3-a456-426614174000
[classes]
entrypoint=sample.FooPlugin
list=1
list=2
list=3
`

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func parse(t *testing.T, src string, opts ...Option) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(src), append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return doc
}

func TestParse_Example(t *testing.T) {
	doc := parse(t, example)

	assert.Equal(t, "Foo Plugin", doc.Default().GetString("name", ""))
	assert.Equal(t, "1.0", doc.Default().GetString("version", ""))
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", doc.Default().GetString("uuid", ""))
	assert.Equal(t, "sample.FooPlugin", doc.GetString("classes", "entrypoint", ""))
	assert.Equal(t, []string{"1", "2", "3"}, doc.Default().GetList("list", nil))
	assert.Equal(t, []string{DefaultSection, "classes"}, doc.Sections())
	assert.Equal(t, []string{"entrypoint", "list"}, doc.Section("classes").Keys())
}

func TestParse_Accessors(t *testing.T) {
	doc := parse(t, "single=a\nmulti=x\nmulti=y\n")

	t.Run("get scalar", func(t *testing.T) {
		v := doc.Get(DefaultSection, "single", Value{})
		assert.Equal(t, Scalar, v.Kind())
		s, ok := v.Scalar()
		assert.True(t, ok)
		assert.Equal(t, "a", s)
	})

	t.Run("get list", func(t *testing.T) {
		v := doc.Get(DefaultSection, "multi", Value{})
		assert.Equal(t, List, v.Kind())
		assert.Equal(t, []string{"x", "y"}, v.Strings())
	})

	t.Run("get missing returns fallback", func(t *testing.T) {
		fb := ScalarValue("fallback")
		assert.Equal(t, fb, doc.Get(DefaultSection, "nope", fb))
		assert.True(t, doc.Default().Get("nope", Value{}).IsAbsent())

		lfb := ListValue("p", "q")
		got := doc.Default().Get("nope", lfb)
		assert.Equal(t, List, got.Kind())
		assert.Equal(t, []string{"p", "q"}, got.Strings())
	})

	t.Run("string of list returns fallback", func(t *testing.T) {
		assert.Equal(t, "fb", doc.Default().GetString("multi", "fb"))
	})

	t.Run("list of scalar is one element", func(t *testing.T) {
		assert.Equal(t, []string{"a"}, doc.Default().GetList("single", nil))
	})

	t.Run("list of missing returns fallback", func(t *testing.T) {
		assert.Nil(t, doc.Default().GetList("nope", nil))
		assert.Equal(t, []string{"z"}, doc.Default().GetList("nope", []string{"z"}))
	})

	t.Run("returned lists are copies", func(t *testing.T) {
		l := doc.Default().GetList("multi", nil)
		l[0] = "mutated"
		assert.Equal(t, []string{"x", "y"}, doc.Default().GetList("multi", nil))
	})
}

func TestParse_Lines(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		section string
		key     string
		want    string
	}{
		{"equals in value", "url=http://x?a=b&c=d\n", DefaultSection, "url", "http://x?a=b&c=d"},
		{"spaces around equals", "key   =   value\n", DefaultSection, "key", "value"},
		{"tabs around equals", "key\t=\tvalue\n", DefaultSection, "key", "value"},
		{"mixed blanks around equals", "key \t= \t value\n", DefaultSection, "key", "value"},
		{"inner and trailing spaces kept", "key=a  b  \n", DefaultSection, "key", "a  b  "},
		{"empty value", "key=\n", DefaultSection, "key", ""},
		{"crlf", "key=value\r\n", DefaultSection, "key", "value"},
		{"no trailing newline", "key=value", DefaultSection, "key", "value"},
		{"dots and hyphens in key", "my.key-1=v\n", DefaultSection, "my.key-1", "v"},
		{"section with whitespace", "  [classes]  \nentrypoint=a.B\n", "classes", "entrypoint", "a.B"},
		{"double equals", "key==v\n", DefaultSection, "key", "=v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.src, WithScoping(Scoped))
			assert.Equal(t, tt.want, doc.GetString(tt.section, tt.key, "<missing>"))
		})
	}
}

func TestParse_Comments(t *testing.T) {
	src := strings.Join([]string{
		"# a comment",
		"; another",
		"x=too short a key",
		"1key=starts with a digit",
		" indented=not a key",
		"[x]",
		"[bad section",
		"",
		"name=kept",
	}, "\n")

	doc := parse(t, src)

	assert.Equal(t, "kept", doc.Default().GetString("name", ""))
	assert.Equal(t, []string{DefaultSection}, doc.Sections())
	assert.Equal(t, []string{"name"}, doc.Default().Keys())
}

func TestParse_ReopenedSection(t *testing.T) {
	src := "[one]\na1=1\n[two]\nb1=1\n[one]\na2=2\n"

	doc := parse(t, src, WithScoping(Scoped))

	assert.Equal(t, []string{DefaultSection, "one", "two"}, doc.Sections())
	assert.Equal(t, []string{"a1", "a2"}, doc.Section("one").Keys())
	assert.Equal(t, "2", doc.GetString("one", "a2", ""))
}

func TestParse_Scoping(t *testing.T) {
	src := "[one]\nkey=a\n[two]\nkey=b\n"

	t.Run("flat coalesces across sections", func(t *testing.T) {
		doc := parse(t, src)
		assert.Equal(t, Flat, doc.Scoping())
		assert.Equal(t, []string{"a", "b"}, doc.GetList("one", "key", nil))
		assert.Equal(t, []string{"a", "b"}, doc.GetList("two", "key", nil))
		assert.Equal(t, []string{"a", "b"}, doc.Default().GetList("key", nil))
		assert.Equal(t, []string{"key"}, doc.Section("one").Keys())
	})

	t.Run("scoped keeps sections apart", func(t *testing.T) {
		doc := parse(t, src, WithScoping(Scoped))
		assert.Equal(t, "a", doc.GetString("one", "key", ""))
		assert.Equal(t, "b", doc.GetString("two", "key", ""))
		assert.Equal(t, "fb", doc.Default().GetString("key", "fb"))
		assert.Equal(t, "fb", doc.GetString("missing", "key", "fb"))
	})
}

func TestParse_ReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Parse(iotest.ErrReader(boom), WithLogger(quietLogger()))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestParse_ReadErrorAfterData(t *testing.T) {
	r := iotest.TimeoutReader(iotest.OneByteReader(strings.NewReader("name=x\n")))
	_, err := Parse(r, WithLogger(quietLogger()))

	assert.ErrorIs(t, err, ErrUnreadable)
}

var (
	keyGen   = rapid.StringMatching(`[a-zA-Z][a-zA-Z0-9.-]{1,10}`)
	valueGen = rapid.StringMatching(`([!-~][ -~]{0,20})?`)
)

func TestProperty_SingleKeyIsScalar(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := keyGen.Draw(t, "key")
		value := valueGen.Draw(t, "value")

		doc, err := Parse(strings.NewReader(key+"="+value+"\n"), WithLogger(quietLogger()))
		require.NoError(t, err)

		assert.Equal(t, Scalar, doc.Default().Get(key, Value{}).Kind())
		assert.Equal(t, value, doc.Default().GetString(key, "<fallback>"))
		assert.Equal(t, []string{value}, doc.Default().GetList(key, nil))
	})
}

func TestProperty_RepeatedKeyIsOrderedList(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := keyGen.Draw(t, "key")
		values := rapid.SliceOfN(valueGen, 2, 10).Draw(t, "values")

		var b strings.Builder
		for i, v := range values {
			fmt.Fprintf(&b, "%s=%s\n", key, v)
			if i%2 == 0 {
				fmt.Fprintf(&b, "zz%s=other\n", strings.ToLower(key))
			}
		}

		doc, err := Parse(strings.NewReader(b.String()), WithLogger(quietLogger()))
		require.NoError(t, err)

		assert.Equal(t, values, doc.Default().GetList(key, nil))
		assert.Equal(t, "<fallback>", doc.Default().GetString(key, "<fallback>"))
	})
}

func TestProperty_CommentLinesAreInert(t *testing.T) {
	commentGen := rapid.StringMatching(`[#;!/ ]?[^a-zA-Z\[\s][ -~]{0,20}`)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "pairs")
		var clean, noisy strings.Builder
		keys := make([]string, n)
		for i := 0; i < n; i++ {
			keys[i] = fmt.Sprintf("k%d", i)
			line := fmt.Sprintf("%s=%s\n", keys[i], valueGen.Draw(t, "value"))
			clean.WriteString(line)
			if rapid.Bool().Draw(t, "noise") {
				noisy.WriteString(commentGen.Draw(t, "comment") + "\n")
			}
			noisy.WriteString(line)
		}

		want, err := Parse(strings.NewReader(clean.String()), WithLogger(quietLogger()))
		require.NoError(t, err)
		got, err := Parse(strings.NewReader(noisy.String()), WithLogger(quietLogger()))
		require.NoError(t, err)

		for _, k := range keys {
			assert.Equal(t, want.Default().GetList(k, nil), got.Default().GetList(k, nil))
		}
		assert.Equal(t, want.Sections(), got.Sections())
	})
}

func TestProperty_ValuesKeepEquals(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9 ]{0,5}`), 2, 5).Draw(t, "parts")
		value := "v" + strings.Join(parts, "=")

		doc, err := Parse(strings.NewReader("key="+value+"\n"), WithLogger(quietLogger()))
		require.NoError(t, err)

		assert.Equal(t, value, doc.Default().GetString("key", ""))
	})
}
