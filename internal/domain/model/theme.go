package model

import (
	"fmt"
	"math/rand"
)

// HeroThemes is the fixed transformation catalog. The strings double as the
// creative instruction fragment handed to the generative model, so wording
// matters more than brevity.
var HeroThemes = []string{
	"superhero with a flowing cape soaring above a city skyline",
	"medieval knight in polished armor guarding a castle gate",
	"space explorer in a sleek suit drifting past distant planets",
	"pirate captain at the helm of a ship on stormy seas",
	"wizard in star-covered robes casting glowing spells",
	"firefighter in full gear standing before a fire engine",
	"secret agent in a tuxedo on a neon-lit rooftop",
	"viking warrior with a horned helmet on a longship prow",
	"samurai in lacquered armor beneath falling cherry blossoms",
	"astronaut planting a flag on a cratered moon surface",
	"royal monarch on a golden throne wearing a jeweled crown",
	"race car driver in a fireproof suit beside a formula car",
	"rock star on stage with an electric guitar and spotlights",
	"arctic explorer in a fur-lined parka crossing an ice field",
	"gladiator in a roman arena raising a victory salute",
}

// RandomTheme picks one theme uniformly at random from the catalog.
// The rand source is injected so tests can seed it.
func RandomTheme(rng *rand.Rand) string {
	return HeroThemes[rng.Intn(len(HeroThemes))]
}

// offlineAnalyses are hand-authored descriptions used when every generative
// analysis attempt fails. Keyed by the exact catalog string.
var offlineAnalyses = map[string]string{
	HeroThemes[0]:  "Your pet becomes a caped superhero frozen mid-flight over a glittering city, face and fur untouched, radiating fearless charm.",
	HeroThemes[1]:  "Your pet stands watch as a medieval knight, armor gleaming in torchlight, with the same loyal eyes peering from beneath the visor.",
	HeroThemes[2]:  "Your pet floats among the stars as a space explorer, visor raised so the familiar face looks out at rings and nebulae.",
	HeroThemes[3]:  "Your pet commands the high seas as a pirate captain, tricorn hat tilted, whiskers unmistakable against the storm.",
	HeroThemes[4]:  "Your pet becomes a wise wizard wrapped in star-covered robes, conjuring soft light that catches every familiar marking.",
	HeroThemes[5]:  "Your pet wears firefighter gear with quiet pride, helmet pushed back so nothing hides that well-known face.",
	HeroThemes[6]:  "Your pet slips into a tuxedo as a secret agent, silhouetted against neon, composed and instantly recognizable.",
	HeroThemes[7]:  "Your pet rides the longship prow as a viking warrior, braided trappings and horned helmet framing the same bright eyes.",
	HeroThemes[8]:  "Your pet stands as a samurai under drifting cherry blossoms, lacquered armor catching pink light, expression serene and familiar.",
	HeroThemes[9]:  "Your pet plants a flag on the moon as an astronaut, the suit bulky but the face inside the helmet exactly as you know it.",
	HeroThemes[10]: "Your pet reigns from a golden throne, crown slightly oversized, bearing the same dignified look it gives at dinner time.",
	HeroThemes[11]: "Your pet leans on a formula car in a racing suit, goggles up, every marking and whisker precisely preserved.",
	HeroThemes[12]: "Your pet owns the stage as a rock star, guitar slung low, spotlights picking out the familiar coat pattern.",
	HeroThemes[13]: "Your pet crosses an endless ice field as an arctic explorer, parka hood framing the unmistakable face.",
	HeroThemes[14]: "Your pet salutes the arena crowd as a gladiator, laurels earned, identity unmistakably its own.",
}

// OfflineAnalysis returns the hand-authored description for a theme, or a
// generic templated one when the theme has no exact entry. Never empty.
func OfflineAnalysis(theme string) string {
	if d, ok := offlineAnalyses[theme]; ok {
		return d
	}
	return fmt.Sprintf(
		"Your pet is reimagined as a %s. The costume and setting are transformed while the original face and features are fully preserved.",
		theme,
	)
}
