package naming_test

import (
	"testing"

	"reshelf/internal/naming"
)

func TestMoviePath(t *testing.T) {
	namer := naming.Namer{}

	got := namer.MoviePath("/library", "Avatar", "2009", "1080P", ".mkv")
	want := "/library/Movies/Avatar (2009)/Avatar (2009) - 1080P.mkv"
	if got != want {
		t.Fatalf("unexpected path:\n got %q\nwant %q", got, want)
	}
	if again := namer.MoviePath("/library", "Avatar", "2009", "1080P", ".mkv"); again != got {
		t.Fatalf("expected deterministic output, got %q then %q", got, again)
	}
}

func TestMoviePathWithoutVersion(t *testing.T) {
	namer := naming.Namer{}

	got := namer.MoviePath("/library", "Avatar", "2009", "", ".mkv")
	want := "/library/Movies/Avatar (2009)/Avatar (2009).mkv"
	if got != want {
		t.Fatalf("unexpected path:\n got %q\nwant %q", got, want)
	}
}

func TestEpisodePath(t *testing.T) {
	namer := naming.Namer{}

	got := namer.EpisodePath("/library", "Game of Thrones", "", 8, 6, "", ".mkv")
	want := "/library/TV Shows/Game of Thrones/Season 08/Game of Thrones - S08E06.mkv"
	if got != want {
		t.Fatalf("unexpected path:\n got %q\nwant %q", got, want)
	}
}

func TestEpisodePathWithYearAndTitle(t *testing.T) {
	namer := naming.Namer{}

	got := namer.EpisodePath("/library", "Game of Thrones", "2011", 8, 6, "The Iron Throne", ".mkv")
	want := "/library/TV Shows/Game of Thrones (2011)/Season 08/Game of Thrones - S08E06 - The Iron Throne.mkv"
	if got != want {
		t.Fatalf("unexpected path:\n got %q\nwant %q", got, want)
	}
}

func TestEpisodePathKeepsLongEpisodeNumbers(t *testing.T) {
	namer := naming.Namer{}

	got := namer.EpisodePath("/library", "One Piece", "", 1, 123, "", ".mkv")
	want := "/library/TV Shows/One Piece/Season 01/One Piece - S01E123.mkv"
	if got != want {
		t.Fatalf("unexpected path:\n got %q\nwant %q", got, want)
	}
}

func TestCustomLibraryFolders(t *testing.T) {
	namer := naming.Namer{MoviesDir: "Films", TVDir: "Series"}

	movie := namer.MoviePath("/library", "Avatar", "2009", "", ".mkv")
	if movie != "/library/Films/Avatar (2009)/Avatar (2009).mkv" {
		t.Fatalf("unexpected movie path: %q", movie)
	}
	episode := namer.EpisodePath("/library", "Dark", "2017", 1, 1, "", ".mkv")
	if episode != "/library/Series/Dark (2017)/Season 01/Dark - S01E01.mkv" {
		t.Fatalf("unexpected episode path: %q", episode)
	}
}

func TestSanitizeSegment(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Mission: Impossible", "Mission Impossible"},
		{"AC/DC Let There Be Rock", "ACDC Let There Be Rock"},
		{`What <If>?`, "What If"},
		{`A "Quoted" Tale`, "A Quoted Tale"},
		{"Inception.", "Inception"},
		{" . Spaced . ", "Spaced"},
		{`Back\Slash|Pipe*Star`, "BackSlashPipeStar"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := naming.SanitizeSegment(tc.in); got != tc.want {
			t.Errorf("SanitizeSegment(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPathsNeverContainIllegalCharacters(t *testing.T) {
	namer := naming.Namer{}

	path := namer.MoviePath("/library", `Mission: Impossible`, "1996", `Director's Cut`, ".mkv")
	for _, c := range `<>:"|?*` {
		for _, r := range path[len("/library"):] {
			if r == c {
				t.Fatalf("path %q contains illegal character %q", path, c)
			}
		}
	}
	if path != "/library/Movies/Mission Impossible (1996)/Mission Impossible (1996) - Director's Cut.mkv" {
		t.Fatalf("unexpected path: %q", path)
	}
}
