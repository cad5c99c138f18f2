// Package duty implements a deterministic leader-election-by-time scheme:
// a pure function of a transfer, wall clock, and node config that every
// node evaluates independently and agrees on without any coordination
// message.
package duty

import (
	"math/big"
	"time"

	"github.com/klingon-exchange/dib-relay/internal/transfer"
)

// Config is the subset of node config the oracle needs. It is process-wide
// and immutable after startup.
type Config struct {
	NodeID           int  // 1-indexed, in [1, NodeCount]
	NodeCount        int  // >= 1
	TimeoutInitial   time.Duration
	TimeoutBackoff   float64
	RouteToFirstNode bool
}

// Period describes period k's boundaries relative to a transfer's age.
type Period struct {
	K        int
	Duration time.Duration
	Left     time.Duration // time remaining in period k
}

// ResolvePeriod partitions elapsed time since a transfer's birth into
// successive periods of exponentially growing length: period k has duration
// timeout_initial * timeout_backoff^k. It walks forward period by period
// rather than using a closed-form log computation; the two are equivalent,
// and the iterative form is the more obviously-correct one to read.
func ResolvePeriod(age time.Duration, cfg Config) Period {
	if age < 0 {
		age = 0
	}
	duration := cfg.TimeoutInitial
	k := 0
	for age >= duration {
		age -= duration
		k++
		duration = scaleDuration(duration, cfg.TimeoutBackoff)
	}
	return Period{K: k, Duration: duration, Left: duration - age}
}

func scaleDuration(d time.Duration, factor float64) time.Duration {
	return time.Duration(float64(d) * factor)
}

// Evaluate returns whether the calling node currently owns t, and whether t
// has aged past its fresh (period 0) window.
//
// Duty rule: during the second half of the current period — the "dead
// zone" — nobody owns the transfer, giving an in-flight
// transaction room to confirm before the next node pounces. Otherwise the
// owner is ((anchor + k) mod node_count) + 1.
//
// Timed-out rule: a transfer is timed out once it has entered period 1 or
// later; period 0 is reserved for the natural owner.
func Evaluate(t *transfer.Transfer, now time.Time, cfg Config) (isMyDuty, isTimedOut bool) {
	age := now.Sub(time.Unix(t.InitiationTimestamp, 0))
	p := ResolvePeriod(age, cfg)
	isTimedOut = p.K > 0

	if p.Left < p.Duration/2 {
		return false, isTimedOut
	}

	anchor := t.Anchor(cfg.RouteToFirstNode)
	owner := ownerNode(anchor, p.K, cfg.NodeCount)
	return owner == cfg.NodeID, isTimedOut
}

func ownerNode(anchor *big.Int, k, nodeCount int) int {
	if nodeCount <= 0 {
		nodeCount = 1
	}
	sum := new(big.Int).Add(anchor, big.NewInt(int64(k)))
	mod := new(big.Int).Mod(sum, big.NewInt(int64(nodeCount)))
	return int(mod.Int64()) + 1
}
