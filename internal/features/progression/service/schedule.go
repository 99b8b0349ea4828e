package service

import (
	"fmt"
	"math"
	"math/bits"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"onchain-leveling-backend/internal/features/progression/models"
)

// Schedule maps cumulative XP to levels using the ledger's threshold table.
// thresholds[i] is the cumulative XP needed to reach level i+2. Past the end
// of the table every level spans as much XP as the last configured one.
type Schedule struct {
	thresholds []uint64
	tailSpan   uint64
}

func NewSchedule(thresholds []uint64) (*Schedule, error) {
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("level schedule is empty")
	}
	if thresholds[0] == 0 {
		return nil, fmt.Errorf("level 2 threshold must be positive")
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return nil, fmt.Errorf("thresholds must be strictly increasing: %d follows %d", thresholds[i], thresholds[i-1])
		}
	}

	t := make([]uint64, len(thresholds))
	copy(t, thresholds)

	tail := t[0]
	if n := len(t); n > 1 {
		tail = t[n-1] - t[n-2]
	}

	return &Schedule{thresholds: t, tailSpan: tail}, nil
}

type scheduleFile struct {
	Thresholds []uint64 `yaml:"thresholds"`
}

// LoadSchedule reads a YAML document of the form `thresholds: [100, 250, ...]`.
func LoadSchedule(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level schedule: %w", err)
	}
	var f scheduleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse level schedule %s: %w", path, err)
	}
	return NewSchedule(f.Thresholds)
}

// Thresholds returns a copy of the configured table.
func (s *Schedule) Thresholds() []uint64 {
	out := make([]uint64, len(s.thresholds))
	copy(out, s.thresholds)
	return out
}

// LevelFor is total and monotonic in xp. XPIntoLevel+XPToNextLevel always equals LevelSpan.
// Level saturates at math.MaxUint64.
func (s *Schedule) LevelFor(xp uint64) models.LevelProgress {
	n := len(s.thresholds)
	reached := sort.Search(n, func(i int) bool { return s.thresholds[i] > xp })

	if reached < n {
		var start uint64
		if reached > 0 {
			start = s.thresholds[reached-1]
		}
		end := s.thresholds[reached]
		return models.LevelProgress{
			Level:         uint64(reached) + 1,
			XPIntoLevel:   xp - start,
			XPToNextLevel: end - xp,
			LevelSpan:     end - start,
		}
	}

	last := s.thresholds[n-1]
	extra := (xp - last) / s.tailSpan
	into := (xp - last) - extra*s.tailSpan
	level, carry := bits.Add64(uint64(n)+1, extra, 0)
	if carry != 0 {
		level = math.MaxUint64
	}
	return models.LevelProgress{
		Level:         level,
		XPIntoLevel:   into,
		XPToNextLevel: s.tailSpan - into,
		LevelSpan:     s.tailSpan,
	}
}

// CumulativeFor returns the total XP needed to reach level. Level 1 and below
// need none; levels beyond uint64 XP saturate at math.MaxUint64.
func (s *Schedule) CumulativeFor(level uint64) uint64 {
	if level <= 1 {
		return 0
	}
	n := uint64(len(s.thresholds))
	if level-2 < n {
		return s.thresholds[level-2]
	}
	hi, span := bits.Mul64(level-1-n, s.tailSpan)
	total, carry := bits.Add64(s.thresholds[n-1], span, 0)
	if hi != 0 || carry != 0 {
		return math.MaxUint64
	}
	return total
}

// CheckAgainstChain compares the local view of xp with what the ledger reported.
// Unregistered profiles (chain level 0) are not compared.
func (s *Schedule) CheckAgainstChain(xp, chainLevel, chainNextCumulative uint64) error {
	if chainLevel == 0 {
		return nil
	}
	local := s.LevelFor(xp)
	localNext := xp + local.XPToNextLevel
	if local.Level == chainLevel && (chainNextCumulative == 0 || chainNextCumulative == localNext) {
		return nil
	}
	return &ScheduleDriftError{
		XP:                  xp,
		LocalLevel:          local.Level,
		ChainLevel:          chainLevel,
		LocalNextCumulative: localNext,
		ChainNextCumulative: chainNextCumulative,
	}
}

// LegacyStep is the XP per level of the old client-only formula.
const LegacyStep = 300

// LegacyFixedStepLevel is the fixed 300 XP per level formula the first client
// releases computed locally. It disagrees with the ledger and is kept only for
// comparison tooling.
//
// Deprecated: use Schedule.LevelFor.
func LegacyFixedStepLevel(xp uint64) models.LevelProgress {
	into := xp % LegacyStep
	return models.LevelProgress{
		Level:         xp/LegacyStep + 1,
		XPIntoLevel:   into,
		XPToNextLevel: LegacyStep - into,
		LevelSpan:     LegacyStep,
	}
}
