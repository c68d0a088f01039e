package scoring

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Tier is the engagement tier of an attendee. The numeric value doubles as
// the follow-up priority (1 = most urgent).
type Tier int

const (
	HotLead Tier = iota + 1
	WarmLead
	CoolLead
	ColdLead
	NoShow
)

var tierNames = map[Tier]string{
	HotLead:  "Hot Lead",
	WarmLead: "Warm Lead",
	CoolLead: "Cool Lead",
	ColdLead: "Cold Lead",
	NoShow:   "No-Show",
}

var tierColors = map[Tier]string{
	HotLead:  "red",
	WarmLead: "orange",
	CoolLead: "yellow",
	ColdLead: "blue",
	NoShow:   "gray",
}

// Tiers lists every tier in priority order
func Tiers() []Tier {
	return []Tier{HotLead, WarmLead, CoolLead, ColdLead, NoShow}
}

// Valid reports whether t is one of the five tiers
func (t Tier) Valid() bool {
	return t >= HotLead && t <= NoShow
}

// String returns the display name stored and shown to users
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Slug returns the URL form of the tier, e.g. "hot-lead"
func (t Tier) Slug() string {
	return strings.ReplaceAll(strings.ToLower(t.String()), " ", "-")
}

// Color returns the badge color used by the dashboard
func (t Tier) Color() string {
	if color, ok := tierColors[t]; ok {
		return color
	}
	return "gray"
}

// Priority returns the sort priority, 1 being the most urgent. Unknown tiers sort last.
func (t Tier) Priority() int {
	if !t.Valid() {
		return int(NoShow)
	}
	return int(t)
}

// ParseTier normalizes any boundary spelling ("Hot Lead", "hot-lead", "HOT_LEAD",
// "hot", "no show", "noshow") into a Tier.
func ParseTier(s string) (Tier, error) {
	key := cases.Fold().String(strings.TrimSpace(s))
	key = strings.NewReplacer("-", " ", "_", " ").Replace(key)
	key = strings.Join(strings.Fields(key), " ")
	key = strings.TrimSuffix(key, " lead")

	switch key {
	case "hot":
		return HotLead, nil
	case "warm":
		return WarmLead, nil
	case "cool":
		return CoolLead, nil
	case "cold":
		return ColdLead, nil
	case "no show", "noshow":
		return NoShow, nil
	}
	return 0, fmt.Errorf("unknown engagement tier %q", s)
}

// MarshalJSON encodes the tier as its display name
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts any spelling ParseTier understands
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the tier as its display name
func (t Tier) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, nil
	}
	return t.String(), nil
}

// Scan reads a tier stored as text. NULL scans to the zero Tier.
func (t *Tier) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = 0
		return nil
	case string:
		parsed, err := ParseTier(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Tier", src)
	}
}
