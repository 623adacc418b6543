package controller

import (
	"context"

	"i4.energy/across/plotctl/wire"
)

// Machine is the motion-control layer that consumes completed commands.
//
// The wire parser guarantees only that a command matched the grammar;
// semantic validation (argument counts, coordinate ranges, calibration
// preconditions) is a Machine's responsibility. Implementations must be
// safe for a concurrent State call while Apply runs.
type Machine interface {
	// Apply executes one command. An error means the command was rejected
	// or failed; the machine must remain usable afterwards.
	Apply(ctx context.Context, cmd wire.Command) error

	// State returns a snapshot of the machine's current state.
	State() MachineState
}

// MachineState is a point-in-time snapshot of the plotter's motion state.
// Positions are in motor steps; the origin offsets map virtual coordinates
// onto the physical travel.
type MachineState struct {
	// X, Y is the current head position in steps.
	X int `json:"x"`
	Y int `json:"y"`

	// OriginX, OriginY is the step position treated as virtual (0,0).
	OriginX int `json:"origin_x"`
	OriginY int `json:"origin_y"`

	// Homed is true once a home command has completed.
	Homed bool `json:"homed"`

	// Calibrating is true while manual calibration is active.
	Calibrating bool `json:"calibrating"`

	// Calibrated travel extents, recorded by the mark commands.
	MinX int `json:"min_x"`
	MaxX int `json:"max_x"`
	MinY int `json:"min_y"`
	MaxY int `json:"max_y"`
}
