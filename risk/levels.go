package risk

import (
	"errors"
	"fmt"

	"github.com/quantfx/smctrader/market"
)

// ErrLevelSide marks a stop or target that ended up on the wrong side of the
// entry. This is a configuration fault and must stop the run before any
// position opens.
var ErrLevelSide = errors.New("risk: stop/target on wrong side of entry")

// LevelConfig parameterizes stop and target placement.
type LevelConfig struct {
	ATRMultiplier   float64
	RewardRisk      float64 // target distance as a multiple of stop distance
	MaxStopDistance float64 // cap on stop distance in price terms, 0 disables
	SRWindow        int     // rolling window for support/resistance
	SRBuffer        float64 // structural buffer fraction, e.g. 0.005
}

// Levels are the prices a position opens with.
type Levels struct {
	Stop   float64
	Target float64
}

// SupportResistance returns the rolling min low and max high over the last
// window bars. ok is false when no bars are available.
func SupportResistance(bars []market.Bar, window int) (support, resistance float64, ok bool) {
	if len(bars) == 0 || window <= 0 {
		return 0, 0, false
	}
	start := len(bars) - window
	if start < 0 {
		start = 0
	}
	support = bars[start].Low
	resistance = bars[start].High
	for _, b := range bars[start+1:] {
		if b.Low < support {
			support = b.Low
		}
		if b.High > resistance {
			resistance = b.High
		}
	}
	return support, resistance, true
}

// ComputeLevels derives (stop, target) from ATR and nearby structure.
//
// The stop sits at the structurally safer (farther) of the ATR distance and
// the buffered structural level, capped at MaxStopDistance. The target is the
// stop distance scaled by RewardRisk, pulled in when a nearer structural
// level stands in the way. Pass support/resistance as 0 when absent.
func ComputeLevels(entry float64, dir market.Direction, atr, support, resistance float64, cfg LevelConfig) (Levels, error) {
	if dir != market.Long && dir != market.Short {
		return Levels{}, fmt.Errorf("%w: no direction", ErrLevelSide)
	}

	atrDist := atr * cfg.ATRMultiplier

	var stopDist float64
	switch dir {
	case market.Long:
		stopDist = atrDist
		if support > 0 {
			if d := entry - support*(1-cfg.SRBuffer); d > stopDist {
				stopDist = d
			}
		}
	case market.Short:
		stopDist = atrDist
		if resistance > 0 {
			if d := resistance*(1+cfg.SRBuffer) - entry; d > stopDist {
				stopDist = d
			}
		}
	}
	if cfg.MaxStopDistance > 0 && stopDist > cfg.MaxStopDistance {
		stopDist = cfg.MaxStopDistance
	}
	if stopDist <= 0 {
		return Levels{}, fmt.Errorf("%w: zero stop distance at entry %g", ErrLevelSide, entry)
	}

	targetDist := stopDist * cfg.RewardRisk

	var lv Levels
	switch dir {
	case market.Long:
		lv.Stop = entry - stopDist
		lv.Target = entry + targetDist
		// A nearer resistance caps the target.
		if r := resistance * (1 + cfg.SRBuffer); resistance > 0 && r > entry && r < lv.Target {
			lv.Target = r
		}
	case market.Short:
		lv.Stop = entry + stopDist
		lv.Target = entry - targetDist
		if s := support * (1 - cfg.SRBuffer); support > 0 && s < entry && s > lv.Target {
			lv.Target = s
		}
	}

	if err := lv.validate(entry, dir); err != nil {
		return Levels{}, err
	}
	return lv, nil
}

// validate enforces the side invariant: stop and target must bracket the
// entry in the correct order for the direction.
func (lv Levels) validate(entry float64, dir market.Direction) error {
	switch dir {
	case market.Long:
		if !(lv.Stop < entry && entry < lv.Target) {
			return fmt.Errorf("%w: long entry=%g stop=%g target=%g", ErrLevelSide, entry, lv.Stop, lv.Target)
		}
	case market.Short:
		if !(lv.Target < entry && entry < lv.Stop) {
			return fmt.Errorf("%w: short entry=%g stop=%g target=%g", ErrLevelSide, entry, lv.Stop, lv.Target)
		}
	}
	return nil
}
