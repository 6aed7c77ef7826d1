package format

import "testing"

func TestEscapeAndBold(t *testing.T) {
	if got := Escape(`Tom & "Jerry" <3`); got != "Tom &amp; &#34;Jerry&#34; &lt;3" {
		t.Fatalf("Escape() = %q", got)
	}
	if got := Bold("a<b"); got != "<b>a&lt;b</b>" {
		t.Fatalf("Bold() = %q", got)
	}
	if got := Field("Genre", "Sci-Fi"); got != "<b>Genre:</b> Sci-Fi" {
		t.Fatalf("Field() = %q", got)
	}
}

func TestLinesSkipsEmpty(t *testing.T) {
	if got := Lines("a", "", "b"); got != "a\nb" {
		t.Fatalf("Lines() = %q", got)
	}
}
