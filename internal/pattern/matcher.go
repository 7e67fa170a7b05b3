// Package pattern holds the declarative extraction table used by the
// correction pipeline: which invoice fields can be learned, which keywords
// anchor them in raw text, and what shape their values take.
package pattern

import (
	"fmt"
	"regexp"
	"sync"
)

// Shape turns a learned anchor into a matcher for one kind of value.
type Shape struct {
	// expr builds the expression body around the quoted-or-raw anchor.
	expr func(anchor string) string
	// value picks the extracted value out of the submatches. Anchors may
	// carry their own groups, so values are located by name.
	value func(re *regexp.Regexp, groups []string) string
}

// Matcher extracts field values from raw text using learned anchors.
// Compiled expressions are cached per field and anchor.
type Matcher struct {
	compiled map[string]*regexp.Regexp
	mu       sync.Mutex
}

// NewMatcher creates a matcher with an empty cache.
func NewMatcher() *Matcher {
	return &Matcher{
		compiled: make(map[string]*regexp.Regexp),
	}
}

// Extract searches text for field's value shape anchored at anchor.
// Matching is case-insensitive. Unknown fields never match.
func (m *Matcher) Extract(field, anchor, text string) (string, bool) {
	if anchor == "" || text == "" {
		return "", false
	}

	def, ok := Lookup(field)
	if !ok {
		return "", false
	}

	re := m.compile(def, anchor)
	groups := re.FindStringSubmatch(text)
	if groups == nil {
		return "", false
	}

	value := def.Shape.value(re, groups)
	return value, value != ""
}

func (m *Matcher) compile(def Field, anchor string) *regexp.Regexp {
	key := def.Name + "\x00" + anchor

	m.mu.Lock()
	defer m.mu.Unlock()

	if re, ok := m.compiled[key]; ok {
		return re
	}

	// Anchors may be regular expressions; anything that does not compile is
	// taken literally.
	re, err := regexp.Compile("(?i)" + def.Shape.expr(anchor))
	if err != nil {
		re = regexp.MustCompile("(?i)" + def.Shape.expr(regexp.QuoteMeta(anchor)))
	}
	m.compiled[key] = re
	return re
}

// valueAfter matches the anchor, an optional colon, and then value.
func valueAfter(value string) Shape {
	return Shape{
		expr: func(anchor string) string {
			return fmt.Sprintf(`(?:%s)\s*:?\s*(?P<value>%s)`, anchor, value)
		},
		value: func(re *regexp.Regexp, groups []string) string {
			return groups[re.SubexpIndex("value")]
		},
	}
}

// percentAround matches a percentage before or after the anchor.
func percentAround() Shape {
	return Shape{
		expr: func(anchor string) string {
			return fmt.Sprintf(`(?P<before>\d+)\s*%%\s*(?:%s)|(?:%s)\s*:?\s*(?P<after>\d+)\s*%%`, anchor, anchor)
		},
		value: func(re *regexp.Regexp, groups []string) string {
			for _, name := range []string{"before", "after"} {
				if g := groups[re.SubexpIndex(name)]; g != "" {
					return g + "%"
				}
			}
			return ""
		},
	}
}
