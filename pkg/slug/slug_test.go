package slug_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/tenantkit/pkg/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "acme-corp"},
		{"Hello, World!", "hello-world"},
		{"  spaced  out  ", "spaced-out"},
		{"already-a-slug", "already-a-slug"},
		{"UPPER", "upper"},
		{"v2.0 release", "v2-0-release"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, slug.Make(tt.in))
		})
	}

	t.Run("long input is capped", func(t *testing.T) {
		t.Parallel()
		out := slug.Make(strings.Repeat("a", 100))
		assert.LessOrEqual(t, len(out), slug.MaxLength)
		assert.True(t, slug.IsValid(out))
	})
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, slug.IsValid("acme"))
	assert.True(t, slug.IsValid("acme-corp-2"))
	assert.False(t, slug.IsValid(""))
	assert.False(t, slug.IsValid("Acme"))
	assert.False(t, slug.IsValid("acme--corp"))
	assert.False(t, slug.IsValid("-acme"))
	assert.False(t, slug.IsValid("acme-"))
	assert.False(t, slug.IsValid(strings.Repeat("a", 80)))
}
