package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chukul/daintree/internal"
	"github.com/chukul/daintree/internal/auth"
)

func TestResolveRole(t *testing.T) {
	roles := []internal.Role{
		{AccountID: "111111111111", RoleName: "Admin", Nickname: "prod-admin"},
		{AccountID: "222222222222", RoleName: "ReadOnly"},
	}

	tests := []struct {
		arg  string
		want int
	}{
		{"main", auth.MainAccount},
		{"MAIN", auth.MainAccount},
		{"0", 0},
		{"1", 1},
		{"prod-admin", 0},
		{"readonly", 1},
	}
	for _, tt := range tests {
		got, err := resolveRole(tt.arg, roles)
		require.NoError(t, err, tt.arg)
		assert.Equal(t, tt.want, got, tt.arg)
	}

	_, err := resolveRole("2", roles)
	assert.ErrorContains(t, err, "no role at index 2")
	_, err = resolveRole("dev", roles)
	assert.ErrorContains(t, err, `no role named "dev"`)
}

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "prod (Admin @ 111111111111)", roleLabel("prod", "Admin", "111111111111"))
	assert.Equal(t, "Admin @ 111111111111", roleLabel("", "Admin", "111111111111"))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Empty(t, firstNonEmpty("", ""))
	assert.Equal(t, "abcd...", truncateText("abcdefghij", 7))
	assert.Equal(t, "abc", truncateText("abc", 7))
	assert.True(t, isKnownRegion("eu-west-1"))
	assert.False(t, isKnownRegion("mars-north-1"))
	assert.True(t, accountIDPattern.MatchString("123456789012"))
	assert.False(t, accountIDPattern.MatchString("12345"))
	assert.EqualError(t, required("access key ID")(""), "access key ID is required")
}
