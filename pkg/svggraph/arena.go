package svggraph

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// element is one parsed SVG element in the arena. Elements reference their
// parent and children by index, never by pointer, so a parsed document can be
// shared freely without identity games.
type element struct {
	tag      string // local name, namespace stripped, lowercased
	attrs    map[string]string
	text     string // concatenated character data directly inside this element
	parent   int    // arena index of parent, -1 for the root
	children []int
}

// arena is an immutable tree of SVG elements built in one parse pass.
// Index 0 is the document root element.
type arena struct {
	elems []element
}

// parseArena tokenizes svgText into an arena. Returns ErrMalformedSVG
// (wrapped with the decoder's position message) for ill-formed XML.
func parseArena(svgText string) (*arena, error) {
	dec := xml.NewDecoder(strings.NewReader(svgText))
	// Diagram SVGs routinely carry charset quirks from renderer toolchains.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	a := &arena{}
	stack := []int{}

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedSVG, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := element{
				tag:    strings.ToLower(t.Name.Local),
				attrs:  make(map[string]string, len(t.Attr)),
				parent: -1,
			}
			for _, attr := range t.Attr {
				// Attribute namespaces are stripped the same way as tags.
				el.attrs[strings.ToLower(attr.Name.Local)] = attr.Value
			}
			idx := len(a.elems)
			if len(stack) > 0 {
				p := stack[len(stack)-1]
				el.parent = p
				a.elems = append(a.elems, el)
				a.elems[p].children = append(a.elems[p].children, idx)
			} else {
				a.elems = append(a.elems, el)
			}
			stack = append(stack, idx)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unbalanced end tag </%s>", ErrMalformedSVG, t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				idx := stack[len(stack)-1]
				a.elems[idx].text += string(t)
			}
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("%w: %d unclosed elements", ErrMalformedSVG, len(stack))
	}
	if len(a.elems) == 0 {
		return nil, fmt.Errorf("%w: no elements", ErrMalformedSVG)
	}
	return a, nil
}

// attr returns the attribute value for the element at idx, or "".
func (a *arena) attr(idx int, name string) string {
	return a.elems[idx].attrs[name]
}

// walk visits every element depth-first in document order.
func (a *arena) walk(fn func(idx int)) {
	if len(a.elems) == 0 {
		return
	}
	var rec func(int)
	rec = func(idx int) {
		fn(idx)
		for _, c := range a.elems[idx].children {
			rec(c)
		}
	}
	rec(0)
}

// descendants returns the arena indices under idx in document order,
// excluding idx itself.
func (a *arena) descendants(idx int) []int {
	var out []int
	var rec func(int)
	rec = func(i int) {
		for _, c := range a.elems[i].children {
			out = append(out, c)
			rec(c)
		}
	}
	rec(idx)
	return out
}

// collectText concatenates the character data of idx and all descendants,
// trimming surrounding whitespace per fragment.
func (a *arena) collectText(idx int) string {
	var parts []string
	if t := strings.TrimSpace(a.elems[idx].text); t != "" {
		parts = append(parts, t)
	}
	for _, c := range a.descendants(idx) {
		if t := strings.TrimSpace(a.elems[c].text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
