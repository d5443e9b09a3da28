package tradebook

import (
	"errors"
	"math"
	"slices"

	"github.com/etnz/tradebook/date"
)

var (
	// ErrXIRRDegenerate is returned when the cash flows cannot have a rate of return.
	ErrXIRRDegenerate = errors.New("xirr: degenerate cash flows")
	// ErrXIRRNonConvergence is returned when no rate satisfies the equation.
	ErrXIRRNonConvergence = errors.New("xirr: no convergence")
)

const (
	xirrTolerance     = 1e-6 // relative to the largest flow
	xirrNewtonSteps   = 100
	xirrBisectSteps   = 300
	xirrLowerBound    = -0.999999
	xirrMaxUpperBound = 1e6
)

// XIRR returns the annualized internal rate of return of dated cash flows:
// the rate r solving Σ CF_i / (1+r)^(d_i/365) = 0, where d_i is the number of
// days since the earliest flow.
//
// It returns ErrXIRRDegenerate for less than two flows or flows that are all
// of the same sign, and ErrXIRRNonConvergence when no root can be found.
func XIRR(flows []CashFlow) (Percent, error) {
	if len(flows) < 2 {
		return 0, ErrXIRRDegenerate
	}
	first := slices.MinFunc(flows, func(a, b CashFlow) int { return a.Date.Compare(b.Date) }).Date

	amounts := make([]float64, len(flows))
	years := make([]float64, len(flows))
	var pos, neg bool
	var scale float64
	for i, cf := range flows {
		amounts[i] = cf.Amount.AsFloat()
		years[i] = float64(cf.Date.DaysSince(first)) / 365
		pos = pos || amounts[i] > 0
		neg = neg || amounts[i] < 0
		scale = math.Max(scale, math.Abs(amounts[i]))
	}
	if !pos || !neg {
		return 0, ErrXIRRDegenerate
	}
	tol := xirrTolerance * scale

	npv := func(r float64) float64 {
		var sum float64
		for i, a := range amounts {
			sum += a / math.Pow(1+r, years[i])
		}
		return sum
	}
	dnpv := func(r float64) float64 {
		var sum float64
		for i, a := range amounts {
			sum -= years[i] * a / math.Pow(1+r, years[i]+1)
		}
		return sum
	}

	// Newton iterations from a 10% guess.
	r := 0.1
	for range xirrNewtonSteps {
		v := npv(r)
		if math.Abs(v) <= tol {
			return Percent(100 * r), nil
		}
		d := dnpv(r)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			break
		}
		next := r - v/d
		if next <= xirrLowerBound || math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}
		r = next
	}

	// bisection on a bracket with a sign change.
	lo, hi := xirrLowerBound, 1.0
	flo, fhi := npv(lo), npv(hi)
	for fhi*flo > 0 && hi < xirrMaxUpperBound {
		hi *= 2
		fhi = npv(hi)
	}
	if math.IsNaN(flo) || math.IsNaN(fhi) || flo*fhi > 0 {
		return 0, ErrXIRRNonConvergence
	}
	for range xirrBisectSteps {
		mid := (lo + hi) / 2
		fmid := npv(mid)
		if math.Abs(fmid) <= tol {
			return Percent(100 * mid), nil
		}
		if fmid*flo < 0 {
			hi = mid
		} else {
			lo, flo = mid, fmid
		}
	}
	return 0, ErrXIRRNonConvergence
}

// terminalFlow is the synthetic final cash flow valuing the portfolio on a date.
func terminalFlow(on date.Date, value Money) CashFlow {
	return CashFlow{Date: on, Amount: value}
}
