package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize_SortsAndJoins(t *testing.T) {
	assert.Equal(t, "H,H,O", Canonicalize([]string{"H", "H", "O"}))
	assert.Equal(t, "Cl,Na", Canonicalize([]string{"Na", "Cl"}))
	assert.Equal(t, "H", Canonicalize([]string{"H"}))
}

func TestCanonicalize_OrderIndependent(t *testing.T) {
	perms := [][]string{
		{"H", "H", "O"},
		{"H", "O", "H"},
		{"O", "H", "H"},
	}
	want := Canonicalize(perms[0])
	for _, p := range perms[1:] {
		assert.Equal(t, want, Canonicalize(p))
	}
}

func TestCanonicalize_DuplicatesAreMeaningful(t *testing.T) {
	assert.NotEqual(t, Canonicalize([]string{"H"}), Canonicalize([]string{"H", "H"}))
}

func TestCanonicalize_DoesNotMutateInput(t *testing.T) {
	in := []string{"O", "H", "H"}
	Canonicalize(in)
	assert.Equal(t, []string{"O", "H", "H"}, in)
}

func TestCanonicalize_EmptyInputYieldsSentinel(t *testing.T) {
	assert.Equal(t, EmptyKey, Canonicalize(nil))
	assert.Equal(t, EmptyKey, Canonicalize([]string{}))
}

func TestSplitKey_RoundTrips(t *testing.T) {
	assert.Equal(t, []string{"H", "H", "O"}, SplitKey("H,H,O"))
	assert.Nil(t, SplitKey(EmptyKey))
}
