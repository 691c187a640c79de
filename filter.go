package gametestx

import "strings"

// Filter selects the definitions that make up a suite run.
type Filter interface {
	Match(d Definition) bool
	String() string
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(d Definition) bool

// Match implements Filter.
func (f FilterFunc) Match(d Definition) bool { return f(d) }

func (f FilterFunc) String() string { return "func" }

type tagFilter []string

// Tags matches definitions whose tag set intersects tags. TagSuiteAll
// matches everything. With no tags it matches TagSuiteDefault.
func Tags(tags ...string) Filter {
	if len(tags) == 0 {
		return tagFilter{TagSuiteDefault}
	}
	return tagFilter(tags)
}

func (f tagFilter) Match(d Definition) bool {
	for _, tag := range f {
		if tag == TagSuiteAll || d.HasTag(tag) {
			return true
		}
	}
	return false
}

func (f tagFilter) String() string {
	return "tags(" + strings.Join(f, ",") + ")"
}

// All matches every definition.
var All Filter = tagFilter{TagSuiteAll}
