package router

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

type segKind uint8

const (
	segLiteral segKind = iota
	segCapture
	segEnum
	segRest
)

type segment struct {
	kind segKind
	lit  string   // segLiteral: exact text
	name string   // parameter name for capture/enum/rest
	alts []string // segEnum: allowed values
	// segCapture length bounds; 0 means unbounded
	minLen int
	maxLen int
}

type pattern struct {
	raw      string
	segs     []segment
	rest     bool // final segment is a wildcard
	captures int
}

// parsePattern compiles a registration pattern. Segments are literal text or
// one of the brace forms: {name} capture, {name:a|b|c} enum, {name:N} or
// {name:N-M} length-bounded capture, {name...} trailing wildcard.
func parsePattern(raw string) (*pattern, error) {
	if raw == "" || raw[0] != '/' {
		return nil, fmt.Errorf("pattern %q must begin with /", raw)
	}
	p := &pattern{raw: raw}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return p, nil // root
	}

	names := make(map[string]bool)
	parts := strings.Split(trimmed, "/")
	for i, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", raw, err)
		}
		if seg.kind == segRest && i != len(parts)-1 {
			return nil, fmt.Errorf("pattern %q: wildcard {%s...} must be the final segment", raw, seg.name)
		}
		if seg.name != "" {
			if names[seg.name] {
				return nil, fmt.Errorf("pattern %q: duplicate parameter %q", raw, seg.name)
			}
			names[seg.name] = true
			p.captures++
		}
		if seg.kind == segRest {
			p.rest = true
		}
		p.segs = append(p.segs, seg)
	}
	return p, nil
}

func parseSegment(s string) (segment, error) {
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		if strings.ContainsAny(s, "{}") {
			return segment{}, fmt.Errorf("segment %q: braces only delimit parameters", s)
		}
		return segment{kind: segLiteral, lit: s}, nil
	}

	inner := s[1 : len(s)-1]
	if name, ok := strings.CutSuffix(inner, "..."); ok {
		if err := checkName(name); err != nil {
			return segment{}, err
		}
		return segment{kind: segRest, name: name}, nil
	}

	name, qual, qualified := strings.Cut(inner, ":")
	if err := checkName(name); err != nil {
		return segment{}, err
	}
	if !qualified {
		return segment{kind: segCapture, name: name}, nil
	}
	if qual == "" {
		return segment{}, fmt.Errorf("segment %q: empty qualifier", s)
	}
	if lo, hi, ok := parseLengthBound(qual); ok {
		return segment{kind: segCapture, name: name, minLen: lo, maxLen: hi}, nil
	}
	alts := strings.Split(qual, "|")
	for _, a := range alts {
		if a == "" {
			return segment{}, fmt.Errorf("segment %q: empty alternative", s)
		}
	}
	return segment{kind: segEnum, name: name, alts: alts}, nil
}

// parseLengthBound reads "N" or "N-M" qualifiers; anything else is an enum.
func parseLengthBound(q string) (lo, hi int, ok bool) {
	first, second, dashed := strings.Cut(q, "-")
	lo, err := strconv.Atoi(first)
	if err != nil || lo < 1 {
		return 0, 0, false
	}
	if !dashed {
		return lo, lo, true
	}
	hi, err = strconv.Atoi(second)
	if err != nil || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("parameter name missing")
	}
	for _, r := range name {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fmt.Errorf("parameter name %q contains %q", name, r)
		}
	}
	return nil
}

// match reports whether segs satisfies the pattern. It never allocates so
// scanning a long table on misses stays cheap.
func (p *pattern) match(segs []string) bool {
	if p.rest {
		if len(segs) < len(p.segs)-1 {
			return false
		}
	} else if len(segs) != len(p.segs) {
		return false
	}
	for i, sg := range p.segs {
		switch sg.kind {
		case segRest:
			return true
		case segLiteral:
			if segs[i] != sg.lit {
				return false
			}
		case segCapture:
			if segs[i] == "" {
				return false
			}
			if sg.minLen > 0 {
				if l := len(segs[i]); l < sg.minLen || l > sg.maxLen {
					return false
				}
			}
		case segEnum:
			if !slices.Contains(sg.alts, segs[i]) {
				return false
			}
		}
	}
	return true
}

// extract fills params from a path already known to match.
func (p *pattern) extract(segs []string, into Params) {
	for i, sg := range p.segs {
		switch sg.kind {
		case segCapture, segEnum:
			into[sg.name] = segs[i]
		case segRest:
			into[sg.name] = strings.Join(segs[i:], "/")
			return
		}
	}
}
