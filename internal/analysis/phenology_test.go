package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCrop(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"olivo", "olivo"},
		{"olivar", "olivo"},
		{"Oliva", "olivo"},
		{"  OLIVAR  ", "olivo"},
		{"viña", "vina"},
		{"viñedo", "vina"},
		{"vid", "vina"},
		{"vino", "vina"},
		{"almendro", "almendro"},
		{"almendra", "almendro"},
		{"almendral", "almendro"},
		{"maiz", "otro"},
		{"", "otro"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeCrop(tc.in), "crop %q", tc.in)
	}
}

func TestExpectedNDVICurve(t *testing.T) {
	tests := []struct {
		crop string
		doy  int
		want float64
	}{
		{"olivo", 1, 0.28},
		{"olivo", 31, 0.28},
		{"olivo", 32, 0.32}, // step boundary belongs to the next segment
		{"olivo", 170, 0.62},
		{"olivo", 360, 0.28},
		{"vina", 45, 0.18},
		{"vina", 170, 0.58},
		{"vina", 350, 0.18},
		{"almendro", 45, 0.22},
		{"almendro", 170, 0.65},
	}
	for _, tc := range tests {
		got := ExpectedNDVI(tc.crop, tc.doy)
		require.NotNil(t, got, "%s doy %d", tc.crop, tc.doy)
		assert.InDelta(t, tc.want, *got, 1e-9, "%s doy %d", tc.crop, tc.doy)
	}
}

func TestExpectedNDVIUnknownCrop(t *testing.T) {
	assert.Nil(t, ExpectedNDVI("otro", 100))
	assert.Nil(t, ExpectedNDVI("trigo", 100))
}

func TestPhenoPhase(t *testing.T) {
	assert.Equal(t, "winter_dormancy", PhenoPhase("olivar", 29))
	assert.Equal(t, "flowering_and_fruit_set", PhenoPhase("olivo", 170))
	assert.Equal(t, "post_harvest", PhenoPhase("olivo", 360))
	assert.Equal(t, "harvest", PhenoPhase("vid", 290))
	assert.Empty(t, PhenoPhase("trigo", 100))
}

func TestPhenoStatus(t *testing.T) {
	dev := func(v float64) *float64 { return &v }

	assert.Equal(t, StatusNoData, PhenoStatus(nil))
	assert.Equal(t, StatusAhead, PhenoStatus(dev(20)))
	assert.Equal(t, StatusNormal, PhenoStatus(dev(15))) // boundary is exclusive
	assert.Equal(t, StatusNormal, PhenoStatus(dev(0)))
	assert.Equal(t, StatusNormal, PhenoStatus(dev(-9.9)))
	assert.Equal(t, StatusBehind, PhenoStatus(dev(-10)))
	assert.Equal(t, StatusBehind, PhenoStatus(dev(-24.9)))
	assert.Equal(t, StatusCritical, PhenoStatus(dev(-25)))
	assert.Equal(t, StatusCritical, PhenoStatus(dev(-60)))
}
