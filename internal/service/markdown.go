package service

import (
	"regexp"
	"strings"

	"github.com/compozy/tgit/internal/domain"
)

const (
	// LegacyDescriptionLimit caps descriptions on servers older than 13.4.0.
	LegacyDescriptionLimit = 25000
	// DescriptionLimit caps descriptions on current servers.
	DescriptionLimit = 1000000
)

var (
	longDescriptionVersion = domain.MustVersion("13.4.0")
	releaseNotesSection    = regexp.MustCompile(`(?s)^(.*### Release Notes)(.*)### Configuration(.*)$`)
	pullLinkPattern        = regexp.MustCompile(`\]\(\.\./pull/`)
)

const notesDivider = "\n\n</details>\n\n---\n\n### Configuration"

// RedactedSecret replaces secrets removed by Sanitize.
const RedactedSecret = "**redacted**"

// MassageTerminology rewrites pull request wording to merge request wording.
func MassageTerminology(input string) string {
	out := strings.ReplaceAll(input, "Pull Request", "Merge Request")
	return strings.ReplaceAll(out, "PR", "MR")
}

// MassageMarkdown adapts a description to the host's wording and size limits.
func MassageMarkdown(input string, serverVersion *domain.Version) string {
	desc := pullLinkPattern.ReplaceAllString(MassageTerminology(input), "](!")
	if serverVersion == nil || serverVersion.Before(longDescriptionVersion) {
		return SmartTruncate(desc, LegacyDescriptionLimit)
	}
	return SmartTruncate(desc, DescriptionLimit)
}

// SmartTruncate shortens input to limit characters, cutting the release notes
// section first when the body has one.
func SmartTruncate(input string, limit int) string {
	runes := []rune(input)
	if len(runes) < limit {
		return input
	}
	m := releaseNotesSection.FindStringSubmatch(input)
	if m == nil {
		return string(runes[:limit])
	}
	pre, notes, post := []rune(m[1]), []rune(m[2]), []rune(m[3])
	available := limit - (len(pre) + len(post) + len([]rune(notesDivider)))
	if available <= 0 {
		return string(runes[:limit])
	}
	if available > len(notes) {
		available = len(notes)
	}
	return string(pre) + string(notes[:available]) + notesDivider + string(post)
}

// Sanitize replaces every occurrence of the given secrets in input.
func Sanitize(input string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		input = strings.ReplaceAll(input, secret, RedactedSecret)
	}
	return input
}
