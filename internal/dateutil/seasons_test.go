package dateutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTemperateSeasonForMonth(t *testing.T) {
	want := map[int]Season{
		1: Summer, 2: Summer, 3: Autumn, 4: Autumn, 5: Autumn, 6: Winter,
		7: Winter, 8: Winter, 9: Spring, 10: Spring, 11: Spring, 12: Summer,
	}
	for month, season := range want {
		got, err := GetTemperateSeasonForMonth(month)
		require.NoError(t, err)
		assert.Equal(t, season, got, "month %d", month)
		assert.True(t, got.IsTemperate())
	}

	_, err := GetTemperateSeasonForMonth(0)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestGetTropicalSeasonForMonth(t *testing.T) {
	for month := 1; month <= 12; month++ {
		got, err := GetTropicalSeasonForMonth(month)
		require.NoError(t, err)
		if month >= 5 && month <= 10 {
			assert.Equal(t, Dry, got, "month %d", month)
		} else {
			assert.Equal(t, Wet, got, "month %d", month)
		}
		assert.True(t, got.IsTropical())
	}
}

func TestTemperateSeasonYear(t *testing.T) {
	assert.Equal(t, 1991, TemperateSeasonYear(1990, 12))
	assert.Equal(t, 1990, TemperateSeasonYear(1990, 1))
	assert.Equal(t, 1990, TemperateSeasonYear(1990, 11))
}

func TestParseSeason(t *testing.T) {
	for _, s := range []Season{Summer, Autumn, Winter, Spring, Wet, Dry} {
		got, err := ParseSeason(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseSeason("Monsoon")
	assert.Error(t, err)
}
