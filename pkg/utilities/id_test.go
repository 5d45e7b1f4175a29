package utilities

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cardNumberPattern = regexp.MustCompile(`^ID-\d{8}-(\d{1,3})$`)

func TestNewCardNumber_Format(t *testing.T) {
	now := time.UnixMilli(1735689600123)
	for i := 0; i < 200; i++ {
		n := NewCardNumber(now)
		m := cardNumberPattern.FindStringSubmatch(n)
		require.NotNil(t, m, "card number %q", n)
		assert.Equal(t, "ID-89600123-", n[:12])
	}
}

func TestNewCardNumber_PadsShortTimestamps(t *testing.T) {
	n := NewCardNumber(time.UnixMilli(42))
	assert.Regexp(t, `^ID-00000042-\d{1,3}$`, n)
}

func TestNewSnowflakeID_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewSnowflakeID()
		require.NotEmpty(t, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNewKSUID(t *testing.T) {
	a, b := NewKSUID(), NewKSUID()
	assert.Len(t, a, 27)
	assert.NotEqual(t, a, b)
}
