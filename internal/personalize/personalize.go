// Package personalize maps a user's stored preference strings onto the
// argument vocabulary the provider adapters expect: display names to
// canonical asset ids, asset ids to ticker symbols, and content-type
// labels to the set of enabled content kinds.
package personalize

import (
	"strings"

	"github.com/itayco2/cryptoadvisor/pkg/models"
)

// DefaultInvestorType is used when onboarding has not been completed.
const DefaultInvestorType = "HODLer"

// defaultAssetIDs are fetched for users without stored preferences.
var defaultAssetIDs = []string{"bitcoin", "ethereum"}

// defaultKinds are enabled for users without stored preferences:
// market news and price charts.
var defaultKinds = []models.ContentType{models.ContentNews, models.ContentPrice}

// assetIDTable maps lower-cased display names to canonical asset ids
// where the mechanical transform would guess wrong.
var assetIDTable = map[string]string{
	"bitcoin":      "bitcoin",
	"ethereum":     "ethereum",
	"cardano":      "cardano",
	"binance coin": "binancecoin",
	"bnb":          "binancecoin",
	"chainlink":    "chainlink",
	"solana":       "solana",
	"polkadot":     "polkadot",
	"litecoin":     "litecoin",
	"bitcoin cash": "bitcoin-cash",
	"stellar":      "stellar",
	"polygon":      "polygon",
}

// symbolTable maps canonical asset ids to ticker symbols for news
// filtering.
var symbolTable = map[string]string{
	"bitcoin":      "BTC",
	"ethereum":     "ETH",
	"cardano":      "ADA",
	"solana":       "SOL",
	"binancecoin":  "BNB",
	"polkadot":     "DOT",
	"chainlink":    "LINK",
	"polygon":      "MATIC",
	"litecoin":     "LTC",
	"bitcoin-cash": "BCH",
	"stellar":      "XLM",
}

// Resolved holds per-provider arguments derived from a user's preferences.
type Resolved struct {
	AssetIDs     []string
	Symbols      []string
	InvestorType string
	Kinds        map[models.ContentType]bool
}

// Enabled reports whether the given content kind was requested.
func (r Resolved) Enabled(kind models.ContentType) bool {
	return r.Kinds[kind]
}

// Resolve derives provider arguments from prefs. A nil or incomplete
// prefs (onboarding not finished) falls back to the fixed defaults:
// bitcoin + ethereum, market news + price charts, HODLer.
func Resolve(prefs *models.Preferences) Resolved {
	r := Resolved{
		InvestorType: DefaultInvestorType,
		Kinds:        make(map[models.ContentType]bool),
	}

	if prefs != nil && len(prefs.InterestedAssets) > 0 {
		r.AssetIDs = AssetIDs(prefs.InterestedAssets)
	} else {
		r.AssetIDs = append([]string(nil), defaultAssetIDs...)
	}

	if prefs != nil && len(prefs.ContentTypes) > 0 {
		for _, label := range prefs.ContentTypes {
			if kind, ok := contentKind(label); ok {
				r.Kinds[kind] = true
			}
		}
	} else {
		for _, kind := range defaultKinds {
			r.Kinds[kind] = true
		}
	}

	if prefs != nil && prefs.InvestorType != "" {
		r.InvestorType = prefs.InvestorType
	}

	r.Symbols = Symbols(r.AssetIDs)
	return r
}

// AssetID maps a user-facing display name ("Bitcoin", "BNB") to a
// canonical provider asset id ("bitcoin", "binancecoin"). Unknown names
// degrade to a best-guess transform: lower-case, spaces to hyphens.
func AssetID(displayName string) string {
	name := strings.ToLower(strings.TrimSpace(displayName))
	if id, ok := assetIDTable[name]; ok {
		return id
	}
	return strings.ReplaceAll(name, " ", "-")
}

// AssetIDs maps a list of display names, dropping empty entries.
func AssetIDs(displayNames []string) []string {
	ids := make([]string, 0, len(displayNames))
	for _, name := range displayNames {
		if id := AssetID(name); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Symbol maps a canonical asset id to its ticker symbol. Unknown ids
// fall back to the upper-cased id.
func Symbol(assetID string) string {
	if sym, ok := symbolTable[assetID]; ok {
		return sym
	}
	return strings.ToUpper(assetID)
}

// Symbols maps a list of asset ids to ticker symbols.
func Symbols(assetIDs []string) []string {
	syms := make([]string, 0, len(assetIDs))
	for _, id := range assetIDs {
		syms = append(syms, Symbol(id))
	}
	return syms
}

// contentKind maps a content-type label to a provider kind. Labels are
// matched case-insensitively and ignoring separators, so the onboarding
// form's "Market News" and a stored "market_news" both enable news.
func contentKind(label string) (models.ContentType, bool) {
	switch normalizeLabel(label) {
	case "marketnews", "news":
		return models.ContentNews, true
	case "charts", "prices", "pricecharts":
		return models.ContentPrice, true
	case "fun", "memes":
		return models.ContentMeme, true
	}
	// "Social" and unknown labels have no provider behind them.
	return "", false
}

func normalizeLabel(label string) string {
	label = strings.ToLower(label)
	label = strings.ReplaceAll(label, " ", "")
	label = strings.ReplaceAll(label, "_", "")
	label = strings.ReplaceAll(label, "&", "")
	return label
}
