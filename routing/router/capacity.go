// Package router implements spec.md §4.7.3/§4.7.4's TrunkRouter and
// SteinerRouter: deterministic MST/Steiner-tree construction over a
// NodeGraph, redundancy passes, and zone-violation rerouting.
package router

import "math"

// CapacitySizer computes a TrunkSize for a trunk carrying downstream demand,
// given a SystemType's default sizing constants. spec.md §9 / §4.7.3
// explicitly declines to pin an algorithm here (the original's
// router/capacity_calc.py is an unfinished placeholder) — SPEC_FULL.md pins
// this concrete, documented choice: pipe diameter scales with the square
// root of demand (keeping velocity roughly constant as cross-sectional area
// grows linearly with demand), cable ampacity scales linearly with demand,
// and duct cross-section scales linearly with demand.
type CapacitySizer struct {
	DefaultDiameterMM float64
	DefaultRatingA    float64
}

// SizeFluid returns a pipe diameter for a fluid/gas trunk carrying
// downstreamDemand relative to a reference demand of 1.0 unit, scaled by
// sqrt(demand) off the system's default diameter.
func (c CapacitySizer) SizeFluid(downstreamDemand float64) float64 {
	if c.DefaultDiameterMM <= 0 {
		return 0
	}
	if downstreamDemand <= 0 {
		return c.DefaultDiameterMM
	}
	return c.DefaultDiameterMM * math.Sqrt(downstreamDemand)
}

// SizeElectrical returns a cable ampacity rating for downstreamDemand,
// scaling linearly off the system's default rating.
func (c CapacitySizer) SizeElectrical(downstreamDemand float64) float64 {
	if c.DefaultRatingA <= 0 {
		return 0
	}
	if downstreamDemand <= 0 {
		return c.DefaultRatingA
	}
	return c.DefaultRatingA * downstreamDemand
}

// SizeDuct returns a square duct's side length in mm for downstreamDemand,
// so cross-sectional area scales linearly with demand.
func (c CapacitySizer) SizeDuct(downstreamDemand float64) (widthMM, heightMM float64) {
	if c.DefaultDiameterMM <= 0 {
		return 0, 0
	}
	base := c.DefaultDiameterMM
	if downstreamDemand <= 0 {
		return base, base
	}
	side := base * math.Sqrt(downstreamDemand)
	return side, side
}
