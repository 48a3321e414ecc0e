package textutil

import "testing"

func TestRuneLenCountsCharacters(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"hello", 5},
		{"无标题", 3},
		{"飞书 doc", 6},
	}
	for _, tc := range cases {
		if got := RuneLen(tc.in); got != tc.want {
			t.Fatalf("RuneLen(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestTruncateNeverSplitsRunes(t *testing.T) {
	t.Parallel()

	if got := Truncate("内容很长的文档", 3); got != "内容很" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("short", 100); got != "short" {
		t.Fatalf("Truncate must return the input unchanged, got %q", got)
	}
	if got := Truncate("x", 0); got != "" {
		t.Fatalf("Truncate with n=0 must be empty, got %q", got)
	}
}

func TestSnippetAppendsEllipsisOnlyWhenCut(t *testing.T) {
	t.Parallel()

	if got := Snippet("abcdef", 3); got != "abc..." {
		t.Fatalf("Snippet = %q", got)
	}
	if got := Snippet("abc", 3); got != "abc" {
		t.Fatalf("Snippet must not pad exact fits, got %q", got)
	}
}
