package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTier_Display(t *testing.T) {
	tests := []struct {
		tier     Tier
		name     string
		slug     string
		color    string
		priority int
	}{
		{HotLead, "Hot Lead", "hot-lead", "red", 1},
		{WarmLead, "Warm Lead", "warm-lead", "orange", 2},
		{CoolLead, "Cool Lead", "cool-lead", "yellow", 3},
		{ColdLead, "Cold Lead", "cold-lead", "blue", 4},
		{NoShow, "No-Show", "no-show", "gray", 5},
		{Tier(0), "Unknown", "unknown", "gray", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.tier.String())
			assert.Equal(t, tt.slug, tt.tier.Slug())
			assert.Equal(t, tt.color, tt.tier.Color())
			assert.Equal(t, tt.priority, tt.tier.Priority())
		})
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		input    string
		expected Tier
	}{
		{"Hot Lead", HotLead},
		{"hot-lead", HotLead},
		{"HOT_LEAD", HotLead},
		{"hot", HotLead},
		{"  Warm   Lead ", WarmLead},
		{"cool-lead", CoolLead},
		{"Cold Lead", ColdLead},
		{"No-Show", NoShow},
		{"no show", NoShow},
		{"noshow", NoShow},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tier, err := ParseTier(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tier)
		})
	}

	for _, bad := range []string{"", "lukewarm", "Hot Leads", "lead"} {
		_, err := ParseTier(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseTier_RoundTripsEveryTier(t *testing.T) {
	for _, tier := range Tiers() {
		parsed, err := ParseTier(tier.String())
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)

		parsed, err = ParseTier(tier.Slug())
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)
	}
}

func TestTier_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Tier Tier `json:"tier"`
	}{WarmLead})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tier":"Warm Lead"}`, string(data))

	var decoded struct {
		Tier Tier `json:"tier"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tier":"cold-lead"}`), &decoded))
	assert.Equal(t, ColdLead, decoded.Tier)

	assert.Error(t, json.Unmarshal([]byte(`{"tier":"tepid"}`), &decoded))
}

func TestTier_SQL(t *testing.T) {
	v, err := NoShow.Value()
	require.NoError(t, err)
	assert.Equal(t, "No-Show", v)

	v, err = Tier(0).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var tier Tier
	require.NoError(t, tier.Scan([]byte("Hot Lead")))
	assert.Equal(t, HotLead, tier)

	require.NoError(t, tier.Scan(nil))
	assert.Equal(t, Tier(0), tier)

	assert.Error(t, tier.Scan(42))
}
