package ipf

import (
	"errors"
	"testing"

	"github.com/woozymasta/pathrules"
)

func TestStoredMatcherDefaults(t *testing.T) {
	t.Parallel()

	opts := ReaderOptions{}
	opts.applyDefaults()

	matcher, err := newStoredMatcher(opts.StoredRules, opts.StoredMatcherOptions)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	cases := []struct {
		name string
		path string
		want bool
	}{
		{name: "jpg", path: "event_banner/a.jpg", want: false},
		{name: "upper FSB", path: "sound/VOICE.FSB", want: false},
		{name: "mixed mp3", path: `bgm\theme.Mp3`, want: false},
		{name: "xml", path: "xml/item.xml", want: true},
		{name: "ies", path: "item.ies", want: true},
		{name: "no extension", path: "jpg", want: true},
		{name: "dotfile", path: "dir/.mp3", want: true},
		{name: "jpeg is not jpg", path: "a.jpeg", want: true},
		{name: "trailing space in extension", path: "a/b.jpg ", want: true},
		{name: "trailing tab in extension", path: "a/b.MP3\t", want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			info := EntryInfo{Path: tc.path}
			if got := worthCompressing(matcher, &info); got != tc.want {
				t.Fatalf("worthCompressing(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestStoredMatcherIncludeExclude(t *testing.T) {
	t.Parallel()

	matcher, err := newStoredMatcher([]pathrules.Rule{
		{Action: pathrules.ActionInclude, Pattern: "*.jpg"},
		{Action: pathrules.ActionExclude, Pattern: "compressed/**"},
	}, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	if !matcher.Match("ui/a.jpg") {
		t.Fatal("ui/a.jpg must be stored")
	}
	if matcher.Match("compressed/a.jpg") {
		t.Fatal("compressed/a.jpg must be excluded by later rule")
	}
}

func TestStoredMatcherEmptyRules(t *testing.T) {
	t.Parallel()

	matcher, err := newStoredMatcher([]pathrules.Rule{{Action: pathrules.ActionInclude, Pattern: "  "}}, pathrules.MatcherOptions{})
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}
	if matcher != nil {
		t.Fatal("expected nil matcher for empty patterns")
	}

	info := EntryInfo{Path: "a.jpg"}
	if !worthCompressing(matcher, &info) {
		t.Fatal("nil matcher must treat every entry as compressed")
	}
}

func TestStoredMatcherInvalidRule(t *testing.T) {
	t.Parallel()

	_, err := newStoredMatcher([]pathrules.Rule{
		{
			Action:  pathrules.ActionUnknown,
			Pattern: "*.jpg",
		},
	}, pathrules.MatcherOptions{
		DefaultAction: pathrules.ActionExclude,
	})
	if !errors.Is(err, ErrInvalidStoredRule) {
		t.Fatalf("expected ErrInvalidStoredRule, got %v", err)
	}
}
