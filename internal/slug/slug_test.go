package slug

import "testing"

func TestMake(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello, World!! 2024", "hello-world-2024"},
		{"Simple Title", "simple-title"},
		{"  leading and trailing  ", "leading-and-trailing"},
		{"already-a-slug", "already-a-slug"},
		{"UPPER CASE", "upper-case"},
		{"a---b", "a-b"},
		{"!!!", ""},
		{"Go 1.25 Release Notes", "go-1-25-release-notes"},
	}
	for _, c := range cases {
		if got := Make(c.title); got != c.want {
			t.Errorf("Make(%q) = %q, want %q", c.title, got, c.want)
		}
	}
}

func TestMake_OnlySafeCharacters(t *testing.T) {
	for _, title := range []string{"Ünïcødé Tîtle", "tabs\tand\nnewlines", "100% guaranteed?!"} {
		got := Make(title)
		for i, r := range got {
			safe := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
			if !safe {
				t.Errorf("Make(%q) produced unsafe rune %q at %d", title, r, i)
			}
		}
		if len(got) > 0 && (got[0] == '-' || got[len(got)-1] == '-') {
			t.Errorf("Make(%q) = %q has leading/trailing hyphen", title, got)
		}
	}
}
