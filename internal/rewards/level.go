package rewards

// Level is the learner rank derived from total experience.
type Level string

const (
	LevelNovice       Level = "novice"
	LevelApprentice   Level = "apprentice"
	LevelPractitioner Level = "practitioner"
	LevelExpert       Level = "expert"
	LevelMaster       Level = "master"
)

// levelFloors holds the minimum XP of each level, lowest first.
var levelFloors = []struct {
	level Level
	xp    int
}{
	{LevelNovice, 0},
	{LevelApprentice, 300},
	{LevelPractitioner, 800},
	{LevelExpert, 1500},
	{LevelMaster, 2500},
}

// AllLevels returns all levels in order from lowest to highest.
func AllLevels() []Level {
	out := make([]Level, len(levelFloors))
	for i, f := range levelFloors {
		out[i] = f.level
	}
	return out
}

// LevelFor returns the level reached with xp experience points.
func LevelFor(xp int) Level {
	switch {
	case xp >= 2500:
		return LevelMaster
	case xp >= 1500:
		return LevelExpert
	case xp >= 800:
		return LevelPractitioner
	case xp >= 300:
		return LevelApprentice
	default:
		return LevelNovice
	}
}

// NextLevel returns the level after the one xp reaches and how many points
// are still missing. At the top level it returns the top level and zero.
func NextLevel(xp int) (Level, int) {
	for _, f := range levelFloors {
		if f.xp > xp {
			return f.level, f.xp - xp
		}
	}
	return LevelMaster, 0
}

// DisplayName returns a human-readable label for the level.
func (l Level) DisplayName() string {
	switch l {
	case LevelNovice:
		return "Novice"
	case LevelApprentice:
		return "Apprentice"
	case LevelPractitioner:
		return "Practitioner"
	case LevelExpert:
		return "Expert"
	case LevelMaster:
		return "Master"
	default:
		return string(l)
	}
}

// Floor returns the experience needed to reach the level.
func (l Level) Floor() int {
	for _, f := range levelFloors {
		if f.level == l {
			return f.xp
		}
	}
	return 0
}
