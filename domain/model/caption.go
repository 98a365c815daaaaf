package model

import (
	"strings"

	"github.com/samber/lo"
)

// MaxCaptionLength is the caption limit shared by TikTok and Instagram.
const MaxCaptionLength = 2200

// BuildCaption joins title, description and hashtags with blank lines.
// Spaces inside a tag are dropped so every tag stays one hashtag.
func BuildCaption(title, description string, tags []string) string {
	hashtags := lo.FilterMap(tags, func(tag string, _ int) (string, bool) {
		tag = strings.ReplaceAll(strings.TrimSpace(tag), " ", "")
		return "#" + tag, tag != ""
	})
	parts := lo.Compact([]string{title, description, strings.Join(hashtags, " ")})
	return strings.Join(parts, "\n\n")
}

// TruncateCaption caps s at MaxCaptionLength characters, ending in "..." when cut.
func TruncateCaption(s string) string {
	r := []rune(s)
	if len(r) <= MaxCaptionLength {
		return s
	}
	return string(r[:MaxCaptionLength-3]) + "..."
}
