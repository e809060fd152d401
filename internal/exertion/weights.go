package exertion

// Weights are the scoring parameters. They are a documented heuristic, not a
// calibrated model; bump Version whenever any value changes so reports can be
// compared.
type Weights struct {
	Version                   string  `mapstructure:"version" json:"version"`
	StepWeight                float64 `mapstructure:"step_weight" json:"stepWeight"`
	StepCap                   float64 `mapstructure:"step_cap" json:"stepCap"`
	PageWeight                float64 `mapstructure:"page_weight" json:"pageWeight"`
	PageCap                   float64 `mapstructure:"page_cap" json:"pageCap"`
	DurationCap               float64 `mapstructure:"duration_cap" json:"durationCap"`
	InteractionBonusThreshold int     `mapstructure:"interaction_bonus_threshold" json:"interactionBonusThreshold"`
	InteractionBonus          float64 `mapstructure:"interaction_bonus" json:"interactionBonus"`
	ScrollUnit                int     `mapstructure:"scroll_unit" json:"scrollUnit"`
}

func DefaultWeights() Weights {
	return Weights{
		Version:                   "v1",
		StepWeight:                2,
		StepCap:                   50,
		PageWeight:                15,
		PageCap:                   30,
		DurationCap:               20,
		InteractionBonusThreshold: 3,
		InteractionBonus:          10,
		ScrollUnit:                1000,
	}
}

const (
	HighThreshold   = 80
	MediumThreshold = 40
)
