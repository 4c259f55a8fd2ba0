package model

import "strings"

// CardType is the internal normalized card brand.
type CardType string

const (
	CardTypeVisa       CardType = "visa"
	CardTypeMastercard CardType = "mastercard"
	CardTypeAmex       CardType = "american_express"
	CardTypeDiscover   CardType = "discover"
	CardTypeUnknown    CardType = "unknown"
)

// cardBrandMap translates the brand identifiers the gateway reports into the
// internal card types. Lookups are case-insensitive.
var cardBrandMap = map[string]CardType{
	"visa":             CardTypeVisa,
	"mastercard":       CardTypeMastercard,
	"american express": CardTypeAmex,
	"amex":             CardTypeAmex,
	"discover":         CardTypeDiscover,
}

// CardTypeFromBrand maps a gateway brand to a CardType. Unknown brands map to
// CardTypeUnknown; this never fails.
func CardTypeFromBrand(brand string) CardType {
	if t, ok := cardBrandMap[strings.ToLower(strings.TrimSpace(brand))]; ok {
		return t
	}
	return CardTypeUnknown
}
