package layout

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSegmentsSplitsOnBreaks(t *testing.T) {
	got := Segments("a\r\nb\n\nc\td")
	want := []Segment{
		{Text: "a"},
		{Break: true},
		{Text: "b"},
		{Break: true},
		{Break: true},
		{Text: "c    d"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Segments 结果不符 (-want +got):\n%s", diff)
	}
}

func TestSegmentsLoneCarriageReturn(t *testing.T) {
	got := Segments("a\rb")
	want := []Segment{{Text: "a"}, {Break: true}, {Text: "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("\\r 应视为换行 (-want +got):\n%s", diff)
	}
}

func TestTokenizeKeepsSpaces(t *testing.T) {
	in := "Hello  world of go"
	got := Tokenize(in)
	want := []string{"Hello ", " ", "world ", "of ", "go"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Tokenize 结果不符 (-want +got):\n%s", diff)
	}
	if strings.Join(got, "") != in {
		t.Fatalf("拼接后应还原输入")
	}
}

func TestSplitWordsIsLeftInverseOfJoin(t *testing.T) {
	cases := map[string]string{
		"  a\tb\n\nc  ": "a b c",
		"one":           "one",
		"x\r\ny   z":    "x y z",
		"":              "",
		" \t\n ":        "",
	}
	for in, want := range cases {
		if got := strings.Join(SplitWords(in), " "); got != want {
			t.Errorf("SplitWords(%q) 拼接为 %q，期望 %q", in, got, want)
		}
	}
}
