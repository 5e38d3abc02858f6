// Package economy defines the shared value types used to key economic data
// throughout EcoFootprint-Intelligence: ISO country codes, ICIO sector codes
// and the composite "{COUNTRY}_{SECTOR}" keys that index inter-country
// input-output columns.
package economy

import "strings"

// CountryCode is a three-letter country identifier as used by both the UN WDI
// SDMX feed and the OECD ICIO table (e.g. "AUS", "DEU", "USA").
type CountryCode string

func (c CountryCode) String() string { return string(c) }

// SectorCode is an ICIO industry sector identifier (e.g. "C01T05AGR").
type SectorCode string

func (s SectorCode) String() string { return string(s) }

// keySeparator joins country and sector in ICIO column labels.
const keySeparator = "_"

// CompositeKey is a "{COUNTRY}_{SECTOR}" column label of the ICIO table.
type CompositeKey string

func (k CompositeKey) String() string { return string(k) }

// NewCompositeKey builds the ICIO column label for a country/sector pair.
func NewCompositeKey(country CountryCode, sector SectorCode) CompositeKey {
	return CompositeKey(string(country) + keySeparator + string(sector))
}

// Split breaks a composite key into its country and sector parts.  Sector
// codes may themselves contain underscores, so only the first separator is
// significant.  ok is false when the key has no separator.
func (k CompositeKey) Split() (country CountryCode, sector SectorCode, ok bool) {
	i := strings.Index(string(k), keySeparator)
	if i <= 0 || i == len(k)-1 {
		return "", "", false
	}
	return CountryCode(k[:i]), SectorCode(k[i+1:]), true
}

// HasCountryPrefix reports whether the key belongs to the given country.
// Matching is on the full country segment, not a raw string prefix, so "AUS"
// does not match a hypothetical "AUSX_..." column.
func (k CompositeKey) HasCountryPrefix(country CountryCode) bool {
	return strings.HasPrefix(string(k), string(country)+keySeparator)
}

// SectorSuffix strips the country prefix from the key.  ok is false when the
// key does not belong to the given country.
func (k CompositeKey) SectorSuffix(country CountryCode) (SectorCode, bool) {
	if !k.HasCountryPrefix(country) {
		return "", false
	}
	return SectorCode(k[len(country)+len(keySeparator):]), true
}
