package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	t.Run("DefaultsToKorean", func(t *testing.T) {
		code, msg := c.Message(c.Translator(""), KeySuccess)
		assert.Equal(t, 0, code)
		assert.Equal(t, "성공하였습니다.", msg)
	})

	t.Run("English", func(t *testing.T) {
		code, msg := c.Message(c.Translator("en-US,en;q=0.9"), "contest_not_joinable")
		assert.Equal(t, -1201, code)
		assert.Equal(t, "The contest is not accepting teams.", msg)
	})

	t.Run("QualityOrdering", func(t *testing.T) {
		_, msg := c.Message(c.Translator("fr;q=1.0, ko;q=0.8, en;q=0.5"), "team_not_found")
		assert.Equal(t, "존재하지 않는 팀입니다.", msg)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		code, msg := c.Message(c.Translator("en"), "no_such_key")
		assert.Equal(t, -9999, code)
		assert.Equal(t, "An unknown error occurred.", msg)
	})

	t.Run("CodesAreUnique", func(t *testing.T) {
		seen := map[int]string{}
		for _, key := range c.Keys() {
			code, _ := c.Message(c.Translator("en"), key)
			if other, ok := seen[code]; ok {
				t.Errorf("code %d used by %s and %s", code, key, other)
			}
			seen[code] = key
		}
	})
}

func TestParseRejectsMissingTranslation(t *testing.T) {
	_, err := parse([]byte(`
unknown:
  code: -1
  en: x
  ko: y
half:
  code: -2
  en: only english
`))
	require.Error(t, err)
}
