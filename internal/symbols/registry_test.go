package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/model"
)

func TestDefault(t *testing.T) {
	r := Default()

	assert.Equal(t, []string{"Asia", "USA", "Europe"}, r.Regions())
	assert.Len(t, r.Indices(), 20)
	assert.Len(t, r.Sectors(), 12)

	s, ok := r.Lookup("XLK")
	require.True(t, ok)
	assert.Equal(t, "Technology", s.Name)
	assert.Equal(t, SectorsGroup, s.Group)
	assert.Equal(t, 27.5, s.Weight)

	s, ok = r.Lookup("^GSPC")
	require.True(t, ok)
	assert.Equal(t, "USA", s.Group)
}

func TestNew_RejectsDuplicates(t *testing.T) {
	groups := []IndexGroup{{Region: "USA", Symbols: []model.Symbol{{Ticker: "SPY"}}}}
	_, err := New(groups, []Sector{{Name: "All", Symbol: "SPY", Weight: 100}})
	assert.ErrorContains(t, err, "duplicate ticker SPY")
}

func TestNew_Validation(t *testing.T) {
	_, err := New([]IndexGroup{{Symbols: []model.Symbol{{Ticker: "X"}}}}, nil)
	assert.Error(t, err)

	_, err = New([]IndexGroup{{Region: "USA", Symbols: []model.Symbol{{Ticker: " "}}}}, nil)
	assert.Error(t, err)

	_, err = New(nil, []Sector{{Name: "Tech", Symbol: "XLK", Weight: -1}})
	assert.Error(t, err)
}

func TestNew_NameDefaultsToTicker(t *testing.T) {
	r, err := New([]IndexGroup{{Region: "USA", Symbols: []model.Symbol{{Ticker: "^DJI"}}}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "^DJI", r.Indices()[0].Name)
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	r := Default()
	sectors := r.Sectors()
	sectors[0].Weight = 0
	assert.Equal(t, 100.0, r.Sectors()[0].Weight)
}
