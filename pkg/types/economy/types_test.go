package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCompositeKey(t *testing.T) {
	key := NewCompositeKey("AUS", "C01T05AGR")
	assert.Equal(t, CompositeKey("AUS_C01T05AGR"), key)
}

func TestCompositeKeySplit(t *testing.T) {
	tests := []struct {
		name        string
		key         CompositeKey
		wantCountry CountryCode
		wantSector  SectorCode
		wantOK      bool
	}{
		{
			name:        "plain key",
			key:         "DEU_C20",
			wantCountry: "DEU",
			wantSector:  "C20",
			wantOK:      true,
		},
		{
			name:        "sector with underscore",
			key:         "AUS_C10_14MIN",
			wantCountry: "AUS",
			wantSector:  "C10_14MIN",
			wantOK:      true,
		},
		{
			name:   "no separator",
			key:    "OUT",
			wantOK: false,
		},
		{
			name:   "leading separator",
			key:    "_C20",
			wantOK: false,
		},
		{
			name:   "trailing separator",
			key:    "AUS_",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			country, sector, ok := tt.key.Split()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantCountry, country)
				assert.Equal(t, tt.wantSector, sector)
			}
		})
	}
}

func TestHasCountryPrefix(t *testing.T) {
	assert.True(t, CompositeKey("AUS_C20").HasCountryPrefix("AUS"))
	assert.False(t, CompositeKey("AUSX_C20").HasCountryPrefix("AUS"))
	assert.False(t, CompositeKey("DEU_C20").HasCountryPrefix("AUS"))
	assert.False(t, CompositeKey("AUS").HasCountryPrefix("AUS"))
}

func TestSectorSuffix(t *testing.T) {
	sector, ok := CompositeKey("AUS_C10_14MIN").SectorSuffix("AUS")
	assert.True(t, ok)
	assert.Equal(t, SectorCode("C10_14MIN"), sector)

	_, ok = CompositeKey("DEU_C20").SectorSuffix("AUS")
	assert.False(t, ok)
}
