package prediction

// Stage is a state of the per-request pipeline.
type Stage int

const (
	StageIdle Stage = iota
	StageValidating
	StageBuilding
	StageScaling
	StageInferring
	StageTiering
	StageResponding
	StageFailed
)

var stageNames = [...]string{
	StageIdle:       "idle",
	StageValidating: "validating",
	StageBuilding:   "building",
	StageScaling:    "scaling",
	StageInferring:  "inferring",
	StageTiering:    "tiering",
	StageResponding: "responding",
	StageFailed:     "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Terminal reports whether no further transition can happen.
func (s Stage) Terminal() bool {
	return s == StageResponding || s == StageFailed
}

// StageObserver is called on every transition. It must be safe for
// concurrent use.
type StageObserver func(Stage)
