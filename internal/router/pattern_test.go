package router

import (
	"strings"
	"testing"
)

func mustParse(t *testing.T, raw string) *pattern {
	t.Helper()
	p, err := parsePattern(raw)
	if err != nil {
		t.Fatalf("parsePattern(%q): %v", raw, err)
	}
	return p
}

func TestParsePattern_Root(t *testing.T) {
	p := mustParse(t, "/")
	if len(p.segs) != 0 || p.rest {
		t.Fatalf("root pattern parsed to %+v", p)
	}
}

func TestParsePattern_SegmentKinds(t *testing.T) {
	p := mustParse(t, "/r/{sub}/{sort:hot|new|top|rising|controversial}/")

	if len(p.segs) != 3 {
		t.Fatalf("segs = %d, want 3", len(p.segs))
	}
	if p.segs[0].kind != segLiteral || p.segs[0].lit != "r" {
		t.Fatalf("seg 0 = %+v", p.segs[0])
	}
	if p.segs[1].kind != segCapture || p.segs[1].name != "sub" {
		t.Fatalf("seg 1 = %+v", p.segs[1])
	}
	if p.segs[2].kind != segEnum || len(p.segs[2].alts) != 5 {
		t.Fatalf("seg 2 = %+v", p.segs[2])
	}
	if p.captures != 2 {
		t.Fatalf("captures = %d, want 2", p.captures)
	}
}

func TestParsePattern_LengthBounds(t *testing.T) {
	p := mustParse(t, "/{id:5-6}/")
	if p.segs[0].kind != segCapture || p.segs[0].minLen != 5 || p.segs[0].maxLen != 6 {
		t.Fatalf("seg = %+v", p.segs[0])
	}

	p = mustParse(t, "/{code:4}/")
	if p.segs[0].minLen != 4 || p.segs[0].maxLen != 4 {
		t.Fatalf("exact bound seg = %+v", p.segs[0])
	}
}

func TestParsePattern_DigitsWithPipeIsEnum(t *testing.T) {
	p := mustParse(t, "/{v:5|6}/")
	if p.segs[0].kind != segEnum {
		t.Fatalf("5|6 should parse as enum, got %+v", p.segs[0])
	}
}

func TestParsePattern_Wildcard(t *testing.T) {
	p := mustParse(t, "/proxy/{url...}/")
	if !p.rest {
		t.Fatal("pattern should be marked rest")
	}
	if p.segs[1].kind != segRest || p.segs[1].name != "url" {
		t.Fatalf("seg 1 = %+v", p.segs[1])
	}
}

func TestParsePattern_Errors(t *testing.T) {
	cases := map[string]string{
		"":                  "must begin with /",
		"r/{sub}":           "must begin with /",
		"/{url...}/rest/":   "must be the final segment",
		"/{sub}/{sub}/":     "duplicate parameter",
		"/{}/":              "parameter name missing",
		"/{bad name}/":      "parameter name",
		"/half{brace/":      "braces",
		"/{sort:}/":         "empty qualifier",
		"/{sort:hot||new}/": "empty alternative",
	}
	for raw, frag := range cases {
		_, err := parsePattern(raw)
		if err == nil {
			t.Fatalf("parsePattern(%q) should fail", raw)
		}
		if !strings.Contains(err.Error(), frag) {
			t.Fatalf("parsePattern(%q) error %q should mention %q", raw, err, frag)
		}
	}
}

func TestMatch_TrailingSlashInsensitive(t *testing.T) {
	p := mustParse(t, "/settings/")
	for _, path := range []string{"/settings", "/settings/"} {
		if !p.match(splitPath(path)) {
			t.Fatalf("pattern should match %q", path)
		}
	}
}

func TestMatch_CaptureRejectsEmptySegment(t *testing.T) {
	p := mustParse(t, "/r/{sub}/")
	if p.match([]string{"r", ""}) {
		t.Fatal("empty segment should not satisfy a capture")
	}
}

func TestMatch_LengthBounds(t *testing.T) {
	p := mustParse(t, "/{id:5-6}/")

	if !p.match(splitPath("/ab1cd/")) || !p.match(splitPath("/ab1cde/")) {
		t.Fatal("5 and 6 char segments should match")
	}
	if p.match(splitPath("/abcd/")) || p.match(splitPath("/abcdefg/")) {
		t.Fatal("4 and 7 char segments should not match")
	}
}

func TestMatch_WildcardSpansSegments(t *testing.T) {
	p := mustParse(t, "/proxy/{url...}/")

	params := make(Params, 1)
	segs := splitPath("/proxy/https:/cdn.example.com/img/a.png/")
	if !p.match(segs) {
		t.Fatal("wildcard should match nested path")
	}
	p.extract(segs, params)
	if params["url"] != "https:/cdn.example.com/img/a.png" {
		t.Fatalf("url = %q", params["url"])
	}
}

func TestMatch_WildcardMatchesEmptyRemainder(t *testing.T) {
	p := mustParse(t, "/proxy/{url...}/")

	segs := splitPath("/proxy/")
	if !p.match(segs) {
		t.Fatal("wildcard should match zero remaining segments")
	}
	params := make(Params, 1)
	p.extract(segs, params)
	if params["url"] != "" {
		t.Fatalf("url = %q, want empty", params["url"])
	}
}

func TestMatch_LiteralIsCaseSensitive(t *testing.T) {
	p := mustParse(t, "/settings/")
	if p.match(splitPath("/Settings/")) {
		t.Fatal("literal match should be case sensitive")
	}
}

func TestExtract_EnumRecordsValue(t *testing.T) {
	p := mustParse(t, "/{scope:user|u}/{username}/")
	segs := splitPath("/u/spez/")
	if !p.match(segs) {
		t.Fatal("should match")
	}
	params := make(Params, 2)
	p.extract(segs, params)
	if params["scope"] != "u" || params["username"] != "spez" {
		t.Fatalf("params = %v", params)
	}
}

func TestSplitPath(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"/", nil},
		{"", nil},
		{"/r/aww/", []string{"r", "aww"}},
		{"/r/aww", []string{"r", "aww"}},
		{"/a//b/", []string{"a", "", "b"}},
	}
	for _, tc := range cases {
		got := splitPath(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("splitPath(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("splitPath(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}
