package mediawiki

import "testing"

func TestPageURL(t *testing.T) {
	cases := map[string]string{
		"Half-Life":             "https://www.pcgamingwiki.com/wiki/Half-Life",
		"Half-Life (PC)":        "https://www.pcgamingwiki.com/wiki/Half-Life_%28PC%29",
		"Tom Clancy's: Rainbow": "https://www.pcgamingwiki.com/wiki/Tom_Clancy%27s%3A_Rainbow",
		"Pokémon":               "https://www.pcgamingwiki.com/wiki/Pok%C3%A9mon",
		"  ":                    "",
	}
	for title, want := range cases {
		if got := PageURL("https://www.pcgamingwiki.com/wiki/", title); got != want {
			t.Fatalf("PageURL(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestFilePathURL(t *testing.T) {
	got := FilePathURL("https://www.pcgamingwiki.com/wiki/Special:FilePath/", "File:Cover.png")
	if got != "https://www.pcgamingwiki.com/wiki/Special:FilePath/File%3ACover.png" {
		t.Fatalf("FilePathURL = %q", got)
	}
}

func TestDecodeURL(t *testing.T) {
	if got := DecodeURL("https://x/y%20z.jpg"); got != "https://x/y z.jpg" {
		t.Fatalf("DecodeURL = %q", got)
	}
	if got := DecodeURL("https://x/100%.jpg"); got != "https://x/100%.jpg" {
		t.Fatalf("invalid escapes should pass through, got %q", got)
	}
	if got := DecodeURL("https://x/a+b.jpg"); got != "https://x/a+b.jpg" {
		t.Fatalf("plus must be preserved, got %q", got)
	}
}
