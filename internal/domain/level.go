package domain

import "math"

// Level is one row of the compensation level catalog. Static reference data.
type Level struct {
	Number      int     // 1..19, strictly ordered by fee
	Name        string
	Fee         float64 // exact joining fee in USDT (base + service fee)
	TokenReward float64 // MAT credited instantly to the paying member
	LayerDepth  int     // placement depth of the ancestor eligible for the payout
	LayerPayout float64 // fixed USDT payout to the layer ancestor
}

// DirectSponsorBonus is the fixed USDT bonus routed to the direct referrer
// for every qualifying payment. It is the service-fee slice of the level fee.
const DirectSponsorBonus = 30.0

// FeeTolerance absorbs floating rounding when matching a payment amount
// against a level fee. Fees are integral so this is exact in practice.
const FeeTolerance = 1e-6

// Catalog is the ordered, read-only table of compensation levels.
type Catalog struct {
	levels []Level
}

// DefaultCatalog returns the production 19-level catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{levels: defaultLevels}
}

// Levels returns the catalog rows in fee order.
func (c *Catalog) Levels() []Level {
	out := make([]Level, len(c.levels))
	copy(out, c.levels)
	return out
}

// ByNumber returns the level with the given number, or false if out of range.
func (c *Catalog) ByNumber(n int) (Level, bool) {
	for _, l := range c.levels {
		if l.Number == n {
			return l, true
		}
	}
	return Level{}, false
}

// DetectLevel matches a payment amount to a level fee within FeeTolerance.
// Detection is a single lookup over the ordered fee table, not inference
// from history. Returns false if no fee matches.
func (c *Catalog) DetectLevel(amount float64) (Level, bool) {
	for _, l := range c.levels {
		if math.Abs(amount-l.Fee) <= FeeTolerance {
			return l, true
		}
	}
	return Level{}, false
}

// defaultLevels mirrors the original fee schedule: level 1 is 100 + 30
// service fee, every later level adds 50. Token reward is the base amount,
// the layer payout is a fifth of the fee routed to the ancestor at the
// level's own depth.
var defaultLevels = []Level{
	{Number: 1, Name: "Warrior", Fee: 130, TokenReward: 100, LayerDepth: 1, LayerPayout: 26},
	{Number: 2, Name: "Bronze", Fee: 150, TokenReward: 120, LayerDepth: 2, LayerPayout: 30},
	{Number: 3, Name: "Silver", Fee: 200, TokenReward: 170, LayerDepth: 3, LayerPayout: 40},
	{Number: 4, Name: "Gold", Fee: 250, TokenReward: 220, LayerDepth: 4, LayerPayout: 50},
	{Number: 5, Name: "Elite", Fee: 300, TokenReward: 270, LayerDepth: 5, LayerPayout: 60},
	{Number: 6, Name: "Platinum", Fee: 350, TokenReward: 320, LayerDepth: 6, LayerPayout: 70},
	{Number: 7, Name: "Master", Fee: 400, TokenReward: 370, LayerDepth: 7, LayerPayout: 80},
	{Number: 8, Name: "Diamond", Fee: 450, TokenReward: 420, LayerDepth: 8, LayerPayout: 90},
	{Number: 9, Name: "Grandmaster", Fee: 500, TokenReward: 470, LayerDepth: 9, LayerPayout: 100},
	{Number: 10, Name: "Starlight", Fee: 550, TokenReward: 520, LayerDepth: 10, LayerPayout: 110},
	{Number: 11, Name: "Epic", Fee: 600, TokenReward: 570, LayerDepth: 11, LayerPayout: 120},
	{Number: 12, Name: "Hall", Fee: 650, TokenReward: 620, LayerDepth: 12, LayerPayout: 130},
	{Number: 13, Name: "Supreme King", Fee: 700, TokenReward: 670, LayerDepth: 13, LayerPayout: 140},
	{Number: 14, Name: "Peerless King", Fee: 750, TokenReward: 720, LayerDepth: 14, LayerPayout: 150},
	{Number: 15, Name: "Glory King", Fee: 800, TokenReward: 770, LayerDepth: 15, LayerPayout: 160},
	{Number: 16, Name: "Legendary Overlord", Fee: 850, TokenReward: 820, LayerDepth: 16, LayerPayout: 170},
	{Number: 17, Name: "Supreme Overlord", Fee: 900, TokenReward: 870, LayerDepth: 17, LayerPayout: 180},
	{Number: 18, Name: "Mythic Supreme", Fee: 950, TokenReward: 920, LayerDepth: 18, LayerPayout: 190},
	{Number: 19, Name: "Mythic Apex", Fee: 1000, TokenReward: 970, LayerDepth: 19, LayerPayout: 200},
}
