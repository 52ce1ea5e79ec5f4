// Package simulation defines the layout engine the graph consumes and a
// built-in force-directed implementation of it.
//
// The engine owns node positions: it writes X, Y, VX and VY on every step
// and reports progress through tick callbacks. The graph only reads the
// results and redraws.
package simulation

import "graphview/model"

// Simulation is the layout engine contract.
type Simulation interface {
	// SetNodes replaces the simulated node set. Nodes without a position
	// receive a default placement.
	SetNodes(nodes []*model.Node)
	// SetLinks replaces the link set and resolves edge endpoints against
	// the current nodes.
	SetLinks(edges []*model.Edge) error
	// SetCenter enables the centring force around (x, y).
	SetCenter(x, y float64)
	// ClearCenter disables the centring force.
	ClearCenter()
	// Restart reheats the simulation to alpha and resumes ticking.
	Restart(alpha float64)
	// Stop halts ticking without changing alpha.
	Stop()
	// OnTick registers fn to run after every step.
	OnTick(fn func())
	Alpha() float64
}
