package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatOr(t *testing.T) {
	v := 0.42
	values := map[string]*float64{"present": &v, "null": nil}

	assert.Equal(t, 0.42, statOr(values, "present", -1))
	assert.Equal(t, -1.0, statOr(values, "null", -1))
	assert.Equal(t, -1.0, statOr(values, "missing", -1))
}

func TestPtrStatCopies(t *testing.T) {
	v := 21.4
	values := map[string]*float64{"k": &v}

	got := ptrStat(values, "k")
	assert.NotNil(t, got)
	assert.NotSame(t, &v, got)
	assert.Equal(t, 21.4, *got)

	assert.Nil(t, ptrStat(values, "missing"))
	values["null"] = nil
	assert.Nil(t, ptrStat(values, "null"))
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 0.501, round3(0.50119))
	assert.Equal(t, 10.0, round2(9.9999))
	assert.Equal(t, -1.4, round1(-1.44))
	assert.Equal(t, 79.0, round1(78.96))

	assert.Nil(t, round1Ptr(nil))
	v := 21.44
	assert.Equal(t, 21.4, *round1Ptr(&v))
}
