package post

import (
	"regexp"
	"strings"
)

var (
	hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	mentionRe = regexp.MustCompile(`@([a-zA-Z0-9_.]+)`)
)

// ExtractHashtags returns lowercased unique hashtags in order of appearance.
func ExtractHashtags(text string) []string {
	return extract(hashtagRe, text, true)
}

// ExtractMentions returns unique mentioned usernames in order of appearance.
func ExtractMentions(text string) []string {
	return extract(mentionRe, text, false)
}

func extract(re *regexp.Regexp, text string, lower bool) []string {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		v := m[1]
		if lower {
			v = strings.ToLower(v)
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
