package block

import "testing"

func TestSource(t *testing.T) {
	tests := []struct {
		typ  Type
		in   string
		want string
	}{
		{TypeText, "plain", "plain"},
		{TypeHeading1, "Title", "# Title"},
		{TypeHeading1, "# Title", "# Title"},
		{TypeHeading2, "Sub", "## Sub"},
		{TypeHeading3, "Small", "### Small"},
		{TypeBulletList, "a\nb", "- a\n- b"},
		{TypeBulletList, "- a\nb", "- a\n- b"},
		{TypeNumberedList, "a\nb", "1. a\n2. b"},
		{TypeTodoList, "buy milk", "- [ ] buy milk"},
		{TypeTodoList, "- [x] done", "- [x] done"},
		{TypeQuote, "wise\nwords", "> wise\n> words"},
		{TypeCode, "x := 1", "```\nx := 1\n```"},
		{TypeCode, "```go\nx := 1\n```", "```go\nx := 1\n```"},
	}
	for _, tt := range tests {
		b := Block{ID: 1, Content: tt.in, Type: tt.typ}
		if got := Source(b); got != tt.want {
			t.Errorf("Source(%v, %q) = %q, want %q", tt.typ, tt.in, got, tt.want)
		}
		if b.Content != tt.in {
			t.Error("Source mutated content")
		}
	}
}
