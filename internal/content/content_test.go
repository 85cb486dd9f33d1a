package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	s := Load()
	assert.Len(t, s.Features, 6)
	assert.Len(t, s.Team.Members, 4)
	assert.Len(t, s.Marketplace.Listings, 3)
	assert.Len(t, s.ESG.Risk, 6)
	require.Len(t, s.Market.Revenue, 5)
	assert.Equal(t, "第1年", s.Market.Revenue[0].Year)
	assert.Equal(t, 1000.0, s.Market.Revenue[4].Revenue)
	assert.Equal(t, "8.2%", s.Hero.Demo.IRR)
}

func TestRiskSeriesSumsToHundred(t *testing.T) {
	for _, p := range Load().ESG.Risk {
		assert.Equal(t, 100, p.Brown+p.Green, p.Month)
	}
}

func TestNavAnchorsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, l := range Load().Nav {
		assert.False(t, seen[l.Anchor], l.Anchor)
		seen[l.Anchor] = true
	}
}

func TestSection(t *testing.T) {
	v, err := Section("team")
	require.NoError(t, err)
	team, ok := v.(Team)
	require.True(t, ok)
	assert.Equal(t, "莊佩蓁", team.Members[0].Name)

	for _, name := range SectionNames() {
		_, err := Section(name)
		assert.NoError(t, err, name)
	}

	_, err = Section("pricing")
	assert.ErrorIs(t, err, ErrUnknownSection)
}

func TestLoadReturnsCopies(t *testing.T) {
	a := Load()
	a.Marketplace.Listings[0].Tags[0] = "changed"
	assert.Equal(t, "屋頂光電", Load().Marketplace.Listings[0].Tags[0])
}
