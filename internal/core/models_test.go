package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drewfead/cip/internal/core"
)

func Test_Unit_CinemaZip(t *testing.T) {
	tests := []struct {
		name    string
		address string
		expect  string
	}{
		{name: "city last", address: "13 rue Champollion 75005 Paris", expect: "75005"},
		{name: "zip last", address: "13 rue Champollion Paris 75005", expect: "75005"},
		{name: "no zip", address: "Place du Marché", expect: "Marché"},
		{name: "empty", address: "", expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, core.Cinema{Address: tt.address}.Zip())
		})
	}
}

func Test_Unit_Descriptions(t *testing.T) {
	c := core.Cinema{Name: "Le Champo", Address: "51 rue des Écoles 75005 Paris"}
	f := core.Film{Name: "Playtime", ReleaseDate: "1967"}

	assert.Equal(t, "Le Champo (75005)", c.Description())
	assert.Equal(t, "Playtime (1967)", f.Description())
}

func Test_Unit_VersionFromFlags(t *testing.T) {
	assert.Equal(t, core.Original, core.VersionFromFlags(true, false))
	assert.Equal(t, core.French, core.VersionFromFlags(false, true))
	assert.Equal(t, core.AnyVersion, core.VersionFromFlags(true, true))
	assert.Equal(t, core.AnyVersion, core.VersionFromFlags(false, false))

	assert.Equal(t, "VO", core.Original.Short())
	assert.Equal(t, "VF", core.French.Short())
	assert.Equal(t, "", core.AnyVersion.Short())
	assert.Equal(t, "any", core.AnyVersion.String())
}

func Test_Unit_AbsoluteURL(t *testing.T) {
	assert.Equal(t, "https://www.cip-paris.fr/cinema/le-champo", core.AbsoluteURL("https://www.cip-paris.fr", "/cinema/le-champo"))
	assert.Equal(t, "https://www.cip-paris.fr/film/playtime", core.AbsoluteURL("https://www.cip-paris.fr/json/", "/film/playtime"))
	assert.Equal(t, "https://tickets.example.org/s/1", core.AbsoluteURL("https://www.cip-paris.fr", "https://tickets.example.org/s/1"))
}
