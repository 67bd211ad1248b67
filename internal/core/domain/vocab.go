package domain

// AttackVector is the closed enumeration of AI-enabled attack categories an
// incident can be filed under. It doubles as the clustering key: campaigns
// never mix attack vectors.
type AttackVector string

const (
	VectorAIPhishing         AttackVector = "ai_phishing"
	VectorDeepfakeVoice      AttackVector = "deepfake_voice"
	VectorLLMPromptInjection AttackVector = "llm_prompt_injection"
	VectorAIMalwareDev       AttackVector = "ai_malware_dev"
	VectorAILateralMovement  AttackVector = "ai_lateral_movement"
	VectorOther              AttackVector = "other"
)

var attackVectors = map[AttackVector]struct{}{
	VectorAIPhishing:         {},
	VectorDeepfakeVoice:      {},
	VectorLLMPromptInjection: {},
	VectorAIMalwareDev:       {},
	VectorAILateralMovement:  {},
	VectorOther:              {},
}

// Valid reports whether v is a member of the closed enumeration.
func (v AttackVector) Valid() bool {
	_, ok := attackVectors[v]
	return ok
}

// ImpactLevel is the reporter's assessment of incident severity.
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

func (l ImpactLevel) Valid() bool {
	switch l {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return true
	}
	return false
}

// Sector is an organization's industry sector.
type Sector string

const (
	SectorHealth  Sector = "health"
	SectorEnergy  Sector = "energy"
	SectorWater   Sector = "water"
	SectorGov     Sector = "gov"
	SectorFinance Sector = "finance"
	SectorOther   Sector = "other"
)

func (s Sector) Valid() bool {
	switch s {
	case SectorHealth, SectorEnergy, SectorWater, SectorGov, SectorFinance, SectorOther:
		return true
	}
	return false
}

// Region is an organization's operating region.
type Region string

const (
	RegionNAEast Region = "NA-East"
	RegionNAWest Region = "NA-West"
	RegionEU     Region = "EU"
	RegionAPAC   Region = "APAC"
)

func (r Region) Valid() bool {
	switch r {
	case RegionNAEast, RegionNAWest, RegionEU, RegionAPAC:
		return true
	}
	return false
}
