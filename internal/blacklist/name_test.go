package blacklist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"bare name", "bar", "bar"},
		{"greater or equal", "foo>=1.2", "foo"},
		{"exact version", "libfoo.so=3-64", "libfoo.so"},
		{"less than", "python<3.13", "python"},
		{"greater than", "glibc>2.38", "glibc"},
		{"first constraint wins", "a=1>2<3", "a"},
		{"leading constraint kept whole", ">=1.0", ">=1.0"},
		{"only constraint char", "=", "="},
		{"dashes and dots survive", "lib32-mesa-24.0", "lib32-mesa-24.0"},
		{"plus signs survive", "gtk+3", "gtk+3"},
		{"decomposed left alone", "cafe\u0301>=1", "cafe\u0301"},
		{"embedded space kept", "foo bar>=1", "foo bar"},
		{"trailing newline kept", "foo\n", "foo\n"},
		{"control character kept", "foo\x00=2", "foo\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_InvalidName(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{"empty", ""},
		{"invalid utf8", "foo\xff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.ref)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidName)
			assert.True(t, IsInvalidName(err))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, ref := range []string{"foo>=1", "bar", ">=2", "café<1"} {
		once, err := Normalize(ref)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "Normalize(%q)", ref)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("foo"))
	assert.NoError(t, Validate(">=1"))

	assert.ErrorIs(t, Validate("foo>=1"), ErrInvalidName)
	assert.ErrorIs(t, Validate(""), ErrInvalidName)
	assert.NoError(t, Validate("cafe\u0301"))
	assert.NoError(t, Validate("foo bar"))
}

func TestNormalize_ReturnsPrefix(t *testing.T) {
	for _, ref := range []string{"foo bar>=1", "cafe\u0301<2", "x\ty", ">=1", "a=b=c", "\u00e9=1"} {
		got, err := Normalize(ref)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ref, got), "Normalize(%q) = %q", ref, got)
		assert.NotEmpty(t, got)
	}
}
