package catalog

import "testing"

func TestCleanTitle(t *testing.T) {
	cases := map[string]string{
		"Half-Life (PC)":           "Half-Life",
		"Foo":                      "Foo",
		"The Test Game (2017)":     "The Test Game",
		"Doom (1993) (Classic)  X": "Doom X",
	}
	for input, want := range cases {
		got := CleanTitle(input)
		if got == nil || *got != want {
			t.Fatalf("CleanTitle(%q) = %v, want %q", input, got, want)
		}
	}
	if got := CleanTitle(" (PC) "); got != nil {
		t.Fatalf("expected nil for title made only of disambiguation, got %q", *got)
	}
}

func TestReleaseYear(t *testing.T) {
	if got := ReleaseYear("February 19, 2020"); got == nil || *got != 2020 {
		t.Fatalf("ReleaseYear = %v, want 2020", got)
	}
	if got := ReleaseYear("1998-11-19 and 2004"); got == nil || *got != 1998 {
		t.Fatalf("expected first year, got %v", got)
	}
	if got := ReleaseYear("TBA"); got != nil {
		t.Fatalf("expected nil for TBA, got %d", *got)
	}
	if got := ReleaseYear("year 1850"); got != nil {
		t.Fatalf("expected nil outside 19xx/20xx, got %d", *got)
	}
}

func TestNormalizeCoverURL(t *testing.T) {
	const base = "https://www.pcgamingwiki.com/wiki/Special:FilePath/"
	str := func(s string) *string { return &s }
	cases := []struct {
		name  string
		input *string
		want  *string
	}{
		{"nil", nil, nil},
		{"blank", str("  "), nil},
		{"file reference", str("File:Cover.png"), str(base + "File%3ACover.png")},
		{"image reference", str("Image:My Cover.jpg"), str(base + "Image%3AMy%20Cover.jpg")},
		{"absolute url", str("https://x/y.jpg"), str("https://x/y.jpg")},
		{"encoded url", str("https://x/Oddmar%20cover.jpg"), str("https://x/Oddmar cover.jpg")},
		{"lowercase prefix kept", str("file:cover.png"), str("file:cover.png")},
		{"relative", str("/images/cover.png"), str("/images/cover.png")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeCoverURL(tc.input, base)
			switch {
			case tc.want == nil && got != nil:
				t.Fatalf("expected nil, got %q", *got)
			case tc.want != nil && (got == nil || *got != *tc.want):
				t.Fatalf("got %v, want %q", got, *tc.want)
			}
		})
	}
}

func TestTitleFromURL(t *testing.T) {
	if got := titleFromURL("https://www.pcgamingwiki.com/wiki/Half-Life_2%3A_Episode_One"); got != "Half-Life 2: Episode One" {
		t.Fatalf("titleFromURL = %q", got)
	}
	if got := titleFromURL("::"); got != "" {
		t.Fatalf("expected empty title for unparsable url, got %q", got)
	}
}
