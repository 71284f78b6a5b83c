package htmltext

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parseFragment(t *testing.T, fragment string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("failed to parse fragment: %v", err)
	}
	// html.Parse wraps fragments into html > head/body; find body
	var body *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	if body == nil {
		t.Fatal("no body element in parsed fragment")
	}
	return body
}

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     []string
	}{
		{
			name:     "br produces line break",
			fragment: `<p>first line<br>second line</p>`,
			want:     []string{"first line", "second line"},
		},
		{
			name:     "inline elements stay on one line",
			fragment: `<p><span>one </span><b>two</b> three</p>`,
			want:     []string{"one two three"},
		},
		{
			name:     "block elements break lines",
			fragment: `<div>first</div><div>second</div>`,
			want:     []string{"first", "second"},
		},
		{
			name:     "nested inline within block",
			fragment: `<div><p><span>안녕</span> <a href="#">hello</a></p></div>`,
			want:     []string{"안녕 hello"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lines(parseFragment(t, tt.fragment))
			if len(got) != len(tt.want) {
				t.Fatalf("Lines() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTextBlankLinesBetweenStanzas(t *testing.T) {
	fragment := `<div><p>line one<br>line two</p><p>line three</p></div>`
	text := Text(parseFragment(t, fragment))

	// The paragraph boundary must survive as an empty line so stanza
	// splitting can find it
	if !strings.Contains(text, "line two") || !strings.Contains(text, "line three") {
		t.Fatalf("Text() = %q, missing expected lines", text)
	}
	between := text[strings.Index(text, "line two")+len("line two") : strings.Index(text, "line three")]
	if !strings.Contains(between, "\n\n") {
		t.Errorf("expected a blank line between paragraphs, got %q", between)
	}
}
