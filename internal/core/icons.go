package core

// IconFallback is rendered for any icon key outside the registry.
const IconFallback = "tag"

// iconRegistry is the fixed set of icon keys the UI ships glyphs for.
var iconRegistry = map[string]struct{}{
	"utensils": {}, "car": {}, "bike": {}, "shopping-cart": {}, "coffee": {},
	"home": {}, "zap": {}, "fuel": {}, "wifi": {}, "truck": {},
	"package": {}, "users": {}, "badge-check": {}, "briefcase": {}, "gift": {},
	"music": {}, "heart": {}, "dollar-sign": {}, "bus": {}, "plane": {},
	"graduation-cap": {}, "gamepad-2": {}, "pill": {}, "activity": {}, "store": {},
	"globe": {}, "hammer": {}, "wrench": {}, "shirt": {}, "smartphone": {},
	"droplets": {},
}

// NormalizeIcon maps unrecognized icon keys to the fallback.
func NormalizeIcon(key string) string {
	if _, ok := iconRegistry[key]; ok {
		return key
	}
	return IconFallback
}

// IconKeys returns the registry keys for pick lists; order is not defined.
func IconKeys() []string {
	keys := make([]string, 0, len(iconRegistry))
	for k := range iconRegistry {
		keys = append(keys, k)
	}
	return keys
}
