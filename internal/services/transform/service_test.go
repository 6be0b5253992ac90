package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestCleanDescription_Text(t *testing.T) {
	s := NewService(arbor.NewLogger(), FormatText, "https://lu.ma")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"plain text", "  Join us   for a  meetup ", "Join us for a meetup"},
		{"paragraphs", "<p>Talks on <b>bitcoin</b></p><p>Food &amp; drinks</p>", "Talks on bitcoin\nFood & drinks"},
		{"line breaks", "Line one<br>Line two", "Line one\nLine two"},
		{"script removed", "<div>Agenda</div><script>alert(1)</script>", "Agenda"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.CleanDescription(tt.in))
		})
	}
}

func TestCleanDescription_Markdown(t *testing.T) {
	s := NewService(arbor.NewLogger(), FormatMarkdown, "https://lu.ma")

	out := s.CleanDescription(`<p>Read the <a href="/docs">docs</a></p><ul><li>DeFi</li></ul>`)
	assert.Contains(t, out, "[docs](")
	assert.Contains(t, out, "DeFi")
	assert.NotContains(t, out, "<p>")
}

func TestStripHTMLTags(t *testing.T) {
	assert.Equal(t, "a < b", stripHTMLTags("<span>a</span> &lt; <i>b</i>"))
}
