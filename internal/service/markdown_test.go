package service

import (
	"strings"
	"testing"

	"github.com/compozy/tgit/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMassageMarkdown(t *testing.T) {
	t.Run("Should rewrite pull request wording and links", func(t *testing.T) {
		in := "This Pull Request updates deps. See PR [#1](../pull/1)."
		got := MassageMarkdown(in, domain.MustVersion("14.0.0"))
		assert.Equal(t, "This Merge Request updates deps. See MR [#1](!1).", got)
	})
	t.Run("Should truncate to the legacy limit on old servers", func(t *testing.T) {
		in := strings.Repeat("a", LegacyDescriptionLimit+10)
		assert.Len(t, MassageMarkdown(in, domain.MustVersion(domain.DefaultServerVersion)), LegacyDescriptionLimit)
		assert.Len(t, MassageMarkdown(in, nil), LegacyDescriptionLimit)
	})
	t.Run("Should keep long descriptions on current servers", func(t *testing.T) {
		in := strings.Repeat("a", LegacyDescriptionLimit+10)
		assert.Len(t, MassageMarkdown(in, domain.MustVersion("13.4.0")), LegacyDescriptionLimit+10)
	})
}

func TestSmartTruncate(t *testing.T) {
	t.Run("Should return short input unchanged", func(t *testing.T) {
		assert.Equal(t, "abc", SmartTruncate("abc", 10))
	})
	t.Run("Should cut release notes before configuration", func(t *testing.T) {
		in := "head\n### Release Notes" + strings.Repeat("n", 100) + "### Configuration\ntail"
		got := SmartTruncate(in, 80)
		assert.Len(t, got, 80)
		assert.True(t, strings.HasPrefix(got, "head\n### Release Notes"))
		assert.True(t, strings.HasSuffix(got, notesDivider+"\ntail"))
	})
	t.Run("Should cut plainly without release notes", func(t *testing.T) {
		assert.Equal(t, "abcde", SmartTruncate("abcdefgh", 5))
	})
}

func TestSanitize(t *testing.T) {
	t.Run("Should redact secrets", func(t *testing.T) {
		assert.Equal(t, "token **redacted** here", Sanitize("token s3cr3t-token here", "s3cr3t-token", ""))
	})
}
