package finance

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
)

// PersonalityTrait is one spending archetype with the share of
// discretionary spend that matched it.
type PersonalityTrait struct {
	Type    string  `json:"type"`
	Label   string  `json:"label"`
	Tagline string  `json:"tagline"`
	Pct     float64 `json:"pct"` // of discretionary spending
}

// CategoryShare is one category's slice of discretionary spending.
type CategoryShare struct {
	Category string  `json:"category"`
	Pct      float64 `json:"pct"`
}

// Personality summarizes where discretionary money actually goes.
type Personality struct {
	Primary            *PersonalityTrait `json:"primary"`
	Secondary          *PersonalityTrait `json:"secondary"`
	Breakdown          []CategoryShare   `json:"breakdown"`
	Insights           []string          `json:"insights"`
	TotalDiscretionary decimal.Decimal   `json:"totalDiscretionary"`
}

type archetype struct {
	key        string
	label      string
	tagline    string
	categories []string
}

var archetypes = []archetype{
	{
		key:        "foodie",
		label:      "Foodie 🍕",
		tagline:    "You love good food, and it shows in your spending.",
		categories: []string{"Food and Drink", "Restaurants", "Fast Food", "Coffee Shops"},
	},
	{
		key:        "homebody",
		label:      "Homebody 🏠",
		tagline:    "Your castle is your kingdom. You invest in comfort.",
		categories: []string{"Shops", "Home", "Home Improvement", "Furniture", "Utilities"},
	},
	{
		key:        "adventurer",
		label:      "Adventurer ✈️",
		tagline:    "Experiences over things. You're always on the move.",
		categories: []string{"Travel", "Airlines", "Hotels", "Recreation", "Entertainment"},
	},
	{
		key:        "techie",
		label:      "Techie 💻",
		tagline:    "Gadgets, apps, and subscriptions. Your digital life is strong.",
		categories: []string{"Electronics", "Software", "Digital Purchase", "Subscriptions"},
	},
	{
		key:        "fashionista",
		label:      "Fashionista 👗",
		tagline:    "Looking good isn't cheap, and you know it.",
		categories: []string{"Clothing", "Apparel", "Beauty", "Personal Care"},
	},
	{
		key:        "wellness",
		label:      "Wellness Warrior 🧘",
		tagline:    "You invest in feeling good, body and mind.",
		categories: []string{"Healthcare", "Fitness", "Gym", "Pharmacy", "Medical"},
	},
	{
		key:        "auto_enthusiast",
		label:      "Road Warrior 🚗",
		tagline:    "You keep those wheels turning. Gas, maintenance, the works.",
		categories: []string{"Automotive", "Gas", "Gas Stations", "Car", "Parking"},
	},
}

// nonDiscretionary are the categories that say nothing about taste.
var nonDiscretionary = map[string]bool{
	"Rent": true, "Mortgage": true, "Insurance": true, "Taxes": true,
	"Utilities": true, "Interest": true, "Loan": true, "Transfer": true,
	"Payment": true,
}

// minTraitShare is the discretionary share below which an archetype is not
// worth reporting.
const minTraitShare = 0.05

var minDiscretionary = decimal.NewFromInt(10)

// MoneyPersonality ranks spending archetypes by their share of
// discretionary outflow. Trait shares can overlap since one category can
// match several archetypes.
func MoneyPersonality(txns []Transaction) Personality {
	if len(txns) == 0 {
		return Personality{
			Insights:           []string{"Not enough transaction data yet. Connect your bank and check back in a week!"},
			TotalDiscretionary: decimal.Zero,
		}
	}

	discByCat := make(map[string]decimal.Decimal)
	totalDisc := decimal.Zero
	totalSpent := decimal.Zero
	income := decimal.Zero
	for _, t := range txns {
		if !t.Outflow() {
			income = income.Add(t.Amount.Abs())
			continue
		}
		totalSpent = totalSpent.Add(t.Amount)
		cat := category(t)
		if nonDiscretionary[cat] {
			continue
		}
		discByCat[cat] = discByCat[cat].Add(t.Amount)
		totalDisc = totalDisc.Add(t.Amount)
	}

	if totalDisc.LessThan(minDiscretionary) {
		return Personality{
			Insights:           []string{"Not enough discretionary spending data to analyze yet."},
			TotalDiscretionary: decimal.Zero,
		}
	}

	type scored struct {
		arch  archetype
		share float64
	}
	ranked := make([]scored, 0, len(archetypes))
	for _, a := range archetypes {
		matched := decimal.Zero
		for cat, amt := range discByCat {
			if matchesArchetype(cat, a) {
				matched = matched.Add(amt)
			}
		}
		ranked = append(ranked, scored{arch: a, share: matched.Div(totalDisc).InexactFloat64()})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].share > ranked[j].share })

	p := Personality{
		Breakdown:          topShares(discByCat, totalDisc, 8),
		TotalDiscretionary: totalDisc.Round(2),
	}
	if ranked[0].share > minTraitShare {
		p.Primary = buildTrait(ranked[0].arch, ranked[0].share)
		a := ranked[0].arch
		p.Insights = append(p.Insights,
			"You're a **"+a.label+"** — "+pctString(ranked[0].share)+"% of your discretionary spending goes to "+
				strings.Join(a.categories[:3], ", ")+".")
	}
	if len(ranked) > 1 && ranked[1].share > minTraitShare {
		p.Secondary = buildTrait(ranked[1].arch, ranked[1].share)
		p.Insights = append(p.Insights,
			"Your secondary trait is **"+ranked[1].arch.label+"** ("+pctString(ranked[1].share)+"% of discretionary spending).")
	}

	topCat := ""
	topAmt := decimal.Zero
	for cat, amt := range discByCat {
		if amt.GreaterThan(topAmt) || (amt.Equal(topAmt) && (topCat == "" || cat < topCat)) {
			topCat, topAmt = cat, amt
		}
	}
	topPct := topAmt.Div(totalDisc).InexactFloat64()
	p.Insights = append(p.Insights,
		"Your #1 spending category is **"+topCat+"** at **"+pctString(topPct)+"%** of discretionary spending.")

	if income.IsPositive() {
		rate := income.Sub(totalSpent).Div(income).InexactFloat64()
		switch {
		case rate > 0.2:
			p.Insights = append(p.Insights, "💪 Impressive "+pctString(rate)+"% savings rate!")
		case rate > 0:
			p.Insights = append(p.Insights, "Your savings rate is "+pctString(rate)+"%.")
		default:
			p.Insights = append(p.Insights, "You're spending more than you're earning this period. Time to tighten up? 👀")
		}
	}
	return p
}

// matchesArchetype pairs a transaction category with an archetype category
// by containment either way, with a small edit-distance allowance for
// plural and spelling drift ("Restaurant" vs "Restaurants").
func matchesArchetype(cat string, a archetype) bool {
	catLower := strings.ToLower(cat)
	for _, ac := range a.categories {
		acLower := strings.ToLower(ac)
		if strings.Contains(catLower, acLower) || strings.Contains(acLower, catLower) {
			return true
		}
		if levenshtein.ComputeDistance(catLower, acLower) <= 2 {
			return true
		}
	}
	return false
}

func buildTrait(a archetype, share float64) *PersonalityTrait {
	return &PersonalityTrait{
		Type:    a.key,
		Label:   a.label,
		Tagline: a.tagline,
		Pct:     roundPct(share * 100),
	}
}

func roundPct(p float64) float64 {
	return math.Round(p*10) / 10
}

func pctString(share float64) string {
	return strconv.Itoa(int(math.Round(share * 100)))
}

func topShares(byCat map[string]decimal.Decimal, total decimal.Decimal, limit int) []CategoryShare {
	shares := make([]CategoryShare, 0, len(byCat))
	for cat, amt := range byCat {
		shares = append(shares, CategoryShare{
			Category: cat,
			Pct:      roundPct(amt.Div(total).InexactFloat64() * 100),
		})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].Pct != shares[j].Pct {
			return shares[i].Pct > shares[j].Pct
		}
		return shares[i].Category < shares[j].Category
	})
	if len(shares) > limit {
		shares = shares[:limit]
	}
	return shares
}
