package blacklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_OrderIndependent(t *testing.T) {
	a := NewSet("foo", "bar", "baz")
	b := NewSet("baz", "foo", "bar")

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.Len(t, Fingerprint(a), 64)
}

func TestFingerprint_DistinguishesSets(t *testing.T) {
	assert.NotEqual(t, Fingerprint(NewSet("foo")), Fingerprint(NewSet("foo", "bar")))
	assert.NotEqual(t, Fingerprint(NewSet()), Fingerprint(NewSet("")))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	assert.Equal(t, `[">=1","a&b"]`, string(marshalCanonical([]string{">=1", "a&b"})))
	assert.Equal(t, `[]`, string(marshalCanonical([]string{})))
}
