package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple word", "Jan", "jan"},
		{"diacritics stripped", "Rytíř Jan", "rytir_jan"},
		{"czech place", "Hrad Kamenec", "hrad_kamenec"},
		{"punctuation collapses", "The  Lost--Sword!!", "the_lost_sword"},
		{"leading and trailing runs", "  ...Esteemed Order...  ", "esteemed_order"},
		{"numbers kept", "Bitva u brodu 1342", "bitva_u_brodu_1342"},
		{"apostrophe", "Žofie z Veselí", "zofie_z_veseli"},
		{"unmappable runes dropped", "a東b", "ab"},
		{"already a slug", "rytir_jan", "rytir_jan"},
		{"underscore runs collapse", "a___b", "a_b"},
		{"empty input", "", "item"},
		{"only punctuation", "?!.", "item"},
		{"only unmappable", "東京", "item"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{
		"Rytíř Jan",
		"The  Lost--Sword!!",
		"Bitva u brodu 1342",
		"",
		"?!.",
		"Žofie z Veselí",
	}

	for _, input := range inputs {
		once := Slugify(input)
		twice := Slugify(once)
		assert.Equal(t, once, twice, "Slugify not idempotent for %q", input)
	}
}
