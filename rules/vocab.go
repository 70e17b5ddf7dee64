package rules

// Atmosphere is a closed set of atmosphere kinds.
type Atmosphere int

const (
	AtmosphereNone Atmosphere = iota + 1
	AtmosphereCO2
	AtmosphereCO2Rich
	AtmosphereMethane
	AtmosphereMethaneRich
	AtmosphereNitrogen
	AtmosphereNitrogenRich
	AtmosphereOxygen
	AtmosphereOxygenRich
	AtmosphereNeon
	AtmosphereNeonRich
	AtmosphereArgon
	AtmosphereArgonRich
	AtmosphereWater
	AtmosphereWaterRich
	AtmosphereSulphurDioxide
	AtmosphereSulphurDioxideRich
	AtmosphereHelium
	AtmosphereAmmonia
	AtmosphereAmmoniaRich
)

var atmosphereNames = map[Atmosphere]string{
	AtmosphereNone:               "NONE",
	AtmosphereCO2:                "CO2",
	AtmosphereCO2Rich:            "CO2_RICH",
	AtmosphereMethane:            "METHANE",
	AtmosphereMethaneRich:        "METHANE_RICH",
	AtmosphereNitrogen:           "NITROGEN",
	AtmosphereNitrogenRich:       "NITROGEN_RICH",
	AtmosphereOxygen:             "OXYGEN",
	AtmosphereOxygenRich:         "OXYGEN_RICH",
	AtmosphereNeon:               "NEON",
	AtmosphereNeonRich:           "NEON_RICH",
	AtmosphereArgon:              "ARGON",
	AtmosphereArgonRich:          "ARGON_RICH",
	AtmosphereWater:              "WATER",
	AtmosphereWaterRich:          "WATER_RICH",
	AtmosphereSulphurDioxide:     "SULPHUR_DIOXIDE",
	AtmosphereSulphurDioxideRich: "SULPHUR_DIOXIDE_RICH",
	AtmosphereHelium:             "HELIUM",
	AtmosphereAmmonia:            "AMMONIA",
	AtmosphereAmmoniaRich:        "AMMONIA_RICH",
}

// String returns the canonical upper-snake name, e.g. "CO2_RICH".
func (a Atmosphere) String() string {
	if n, ok := atmosphereNames[a]; ok {
		return n
	}
	return "UNKNOWN"
}

// AtmosphereAny is the source spelling meaning "some atmosphere, any kind".
// It is not an Atmosphere member.
const AtmosphereAny = "Any"

// atmosphereTable maps source spellings to kinds. Lookups are exact.
var atmosphereTable = map[string]Atmosphere{
	"None":          AtmosphereNone,
	"No atmosphere": AtmosphereNone,

	"CarbonDioxide":     AtmosphereCO2,
	"CarbonDioxideRich": AtmosphereCO2Rich,

	"Methane":     AtmosphereMethane,
	"MethaneRich": AtmosphereMethaneRich,

	"Nitrogen":     AtmosphereNitrogen,
	"NitrogenRich": AtmosphereNitrogenRich,

	"Oxygen":     AtmosphereOxygen,
	"OxygenRich": AtmosphereOxygenRich,

	"Neon":     AtmosphereNeon,
	"NeonRich": AtmosphereNeonRich,

	"Argon":     AtmosphereArgon,
	"ArgonRich": AtmosphereArgonRich,

	"Water":     AtmosphereWater,
	"WaterRich": AtmosphereWaterRich,

	"SulphurDioxide":     AtmosphereSulphurDioxide,
	"SulphurDioxideRich": AtmosphereSulphurDioxideRich,

	"Helium": AtmosphereHelium,

	"Ammonia":     AtmosphereAmmonia,
	"AmmoniaRich": AtmosphereAmmoniaRich,
}

// ParseAtmosphere maps a source spelling to an Atmosphere.
func ParseAtmosphere(s string) (Atmosphere, bool) {
	a, ok := atmosphereTable[s]
	return a, ok
}

// BodyType is a closed set of planet body kinds.
type BodyType int

const (
	BodyRocky BodyType = iota + 1
	BodyHighMetal
	BodyMetalRich
	BodyRockyIce
	BodyIcy
)

var bodyTypeNames = map[BodyType]string{
	BodyRocky:     "ROCKY",
	BodyHighMetal: "HIGH_METAL",
	BodyMetalRich: "METAL_RICH",
	BodyRockyIce:  "ROCKY_ICE",
	BodyIcy:       "ICY",
}

func (b BodyType) String() string {
	if n, ok := bodyTypeNames[b]; ok {
		return n
	}
	return "UNKNOWN"
}

var bodyTypeTable = map[string]BodyType{
	"Rocky body":              BodyRocky,
	"High metal content body": BodyHighMetal,
	"Metal rich body":         BodyMetalRich,
	"Rocky ice body":          BodyRockyIce,
	"Icy body":                BodyIcy,
}

// ParseBodyType maps a source spelling to a BodyType.
func ParseBodyType(s string) (BodyType, bool) {
	b, ok := bodyTypeTable[s]
	return b, ok
}

// Volcanism is the coarse volcanism requirement of a rule.
type Volcanism int

const (
	// VolcanismAny places no constraint and is never emitted.
	VolcanismAny Volcanism = iota
	VolcanismNone
	VolcanismOnly
)

func (v Volcanism) String() string {
	switch v {
	case VolcanismNone:
		return "NO_VOLCANISM"
	case VolcanismOnly:
		return "VOLCANIC_ONLY"
	default:
		return "ANY"
	}
}

// volcanismNone is the source spelling for "no volcanism".
const volcanismNone = "None"
