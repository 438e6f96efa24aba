package blacklist

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_ProvidesScenario(t *testing.T) {
	records := []PackageRecord{
		{Name: "pkg", Provides: []string{"pkg-alt>=2"}},
	}

	set, err := Build(records, IncludeName|IncludeProvides)
	require.NoError(t, err)
	assert.Equal(t, NewSet("pkg", "pkg-alt"), set)
}

func TestBuild_IncludePolicy(t *testing.T) {
	records := []PackageRecord{
		{Name: "vim", Provides: []string{"xxd", "vi=9"}, Replaces: []string{"gvim<9"}},
		{Name: "neovim", Provides: []string{"vi"}},
	}

	tests := []struct {
		name    string
		include Include
		want    Set
	}{
		{"name only", IncludeName, NewSet("vim", "neovim")},
		{"provides only", IncludeProvides, NewSet("xxd", "vi")},
		{"replaces only", IncludeReplaces, NewSet("gvim")},
		{"default", DefaultInclude, NewSet("vim", "neovim", "gvim")},
		{"everything", IncludeName | IncludeProvides | IncludeReplaces, NewSet("vim", "neovim", "xxd", "vi", "gvim")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Build(records, tt.include)
			require.NoError(t, err)
			assert.Equal(t, tt.want, set)
		})
	}
}

func TestBuild_PermutationInvariant(t *testing.T) {
	records := []PackageRecord{
		{Name: "a", Provides: []string{"b>=1"}, Replaces: []string{"c"}},
		{Name: "b"},
		{Name: "d", Replaces: []string{"a=2"}},
		{Name: "e", Provides: []string{"f", "g<3"}},
		{Name: "h", Replaces: []string{"e"}},
	}
	include := IncludeName | IncludeProvides | IncludeReplaces

	want, err := Build(records, include)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]PackageRecord(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := Build(shuffled, include)
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "permutation %d", i)
	}
}

func TestBuild_Empty(t *testing.T) {
	set, err := Build(nil, DefaultInclude)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestBuild_InvalidReference(t *testing.T) {
	records := []PackageRecord{
		{Repo: "extra", Name: "ok"},
		{Repo: "extra", Name: "broken", Replaces: []string{""}},
	}

	_, err := Build(records, DefaultInclude)
	require.Error(t, err)
	assert.True(t, IsInvalidName(err))
	assert.Contains(t, err.Error(), "extra/broken")

	// The bad alias is ignored when its field is not selected.
	set, err := Build(records, IncludeName)
	require.NoError(t, err)
	assert.Equal(t, NewSet("ok", "broken"), set)
}

func TestParseInclude(t *testing.T) {
	inc, err := ParseInclude([]string{"name", "Provides"})
	require.NoError(t, err)
	assert.Equal(t, IncludeName|IncludeProvides, inc)
	assert.Equal(t, "name provides", inc.String())

	_, err = ParseInclude([]string{"name", "depends"})
	assert.ErrorContains(t, err, "depends")

	_, err = ParseInclude(nil)
	assert.Error(t, err)
}

func TestInclude_String(t *testing.T) {
	assert.Equal(t, "name replaces", DefaultInclude.String())
	assert.Equal(t, "", Include(0).String())
}

func TestBuild_OddReferencesKept(t *testing.T) {
	records := []PackageRecord{
		{Name: "ok"},
		{Name: "x", Provides: []string{"weird name>=1", "tab\tname"}},
	}

	set, err := Build(records, IncludeName|IncludeProvides)
	require.NoError(t, err)
	assert.Equal(t, NewSet("ok", "x", "weird name", "tab\tname"), set)
}
