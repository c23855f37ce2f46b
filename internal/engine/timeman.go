package engine

import (
	"time"
)

// Clock limits for one move.
const (
	minMoveTime   = 10 * time.Millisecond
	safetyReserve = 50 * time.Millisecond
)

// TimeManager handles time allocation for searches.
type TimeManager struct {
	optimumTime time.Duration // Target time for this move
	maximumTime time.Duration // Hard limit for this move
	startTime   time.Time
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init allots time for one move given the player's remaining clock and the
// number of empty squares. A zero timeLeft means no clock; moveTime, when
// set, fixes the budget outright.
//
// The player still has about empties/2 moves to make, so the optimum is
// 2*timeLeft/empties. The maximum allows up to three times that but always
// leaves a reserve on the clock.
func (tm *TimeManager) Init(timeLeft, moveTime time.Duration, empties int) {
	tm.startTime = time.Now()

	if moveTime > 0 {
		tm.optimumTime = moveTime
		tm.maximumTime = moveTime
		return
	}
	if timeLeft <= 0 {
		tm.optimumTime = time.Hour
		tm.maximumTime = time.Hour
		return
	}

	if empties < 2 {
		empties = 2
	}
	tm.optimumTime = 2 * timeLeft / time.Duration(empties)
	tm.maximumTime = 3 * tm.optimumTime

	usable := timeLeft - safetyReserve
	if usable < minMoveTime {
		usable = minMoveTime
	}
	if tm.maximumTime > usable {
		tm.maximumTime = usable
	}
	if tm.optimumTime > tm.maximumTime {
		tm.optimumTime = tm.maximumTime
	}
	if tm.optimumTime < minMoveTime {
		tm.optimumTime = minMoveTime
	}
	if tm.maximumTime < tm.optimumTime {
		tm.maximumTime = tm.optimumTime
	}
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// OptimumTime returns the target time for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the maximum time allowed.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// Deadline returns the hard deadline of the move.
func (tm *TimeManager) Deadline() time.Time {
	return tm.startTime.Add(tm.MaximumTime())
}

// PastOptimum returns true if we've exceeded the optimum time.
func (tm *TimeManager) PastOptimum() bool {
	return tm.Elapsed() >= tm.optimumTime
}
