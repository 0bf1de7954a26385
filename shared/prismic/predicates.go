package prismic

import (
	"strconv"
	"strings"
)

// Predicate is a single clause of the Prismic query language.
type Predicate struct {
	op     string
	path   string
	values []string
	list   bool
}

// At matches documents whose path equals value, e.g. At("document.type", "posts").
func At(path, value string) Predicate {
	return Predicate{op: "at", path: path, values: []string{value}}
}

// Any matches documents whose path equals one of values.
func Any(path string, values ...string) Predicate {
	return Predicate{op: "any", path: path, values: values, list: true}
}

// String renders the predicate, e.g. [at(document.type,"posts")].
func (p Predicate) String() string {
	quoted := make([]string, len(p.values))
	for i, v := range p.values {
		quoted[i] = strconv.Quote(v)
	}
	arg := strings.Join(quoted, ",")
	if p.list {
		arg = "[" + arg + "]"
	}
	return "[" + p.op + "(" + p.path + "," + arg + ")]"
}

func buildQuery(predicates []Predicate) string {
	var b strings.Builder
	b.WriteString("[")
	for _, p := range predicates {
		b.WriteString(p.String())
	}
	b.WriteString("]")
	return b.String()
}
