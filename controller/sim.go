package controller

import (
	"context"
	"fmt"
	"sync"

	"i4.energy/across/plotctl/wire"
)

// Geometry of the plotter. Hosts address positions in a fixed virtual
// coordinate space; the machine maps those onto motor steps.
const (
	VirtualWidth  = 2000
	VirtualHeight = 1500

	// Physical travel limits in steps.
	MaxXTravel = 10500
	MaxYTravel = 7500

	// CalibrationStep is the per-command move distance used when an axis
	// move carries no explicit amount.
	CalibrationStep = 10
)

// SimMachine is an in-memory Machine. It tracks head position, origin and
// calibration marks with full semantic validation but drives no hardware,
// which makes it the default for tests and for running the gateway without
// a plotter attached.
type SimMachine struct {
	mu    sync.Mutex
	state MachineState
}

// NewSimMachine returns a machine at step position (0,0), not homed, with
// calibration marks spanning the full travel.
func NewSimMachine() *SimMachine {
	return &SimMachine{
		state: MachineState{
			MaxX: MaxXTravel,
			MaxY: MaxYTravel,
		},
	}
}

// State implements Machine.
func (m *SimMachine) State() MachineState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Apply implements Machine.
func (m *SimMachine) Apply(ctx context.Context, cmd wire.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch cmd.Op {
	case wire.OpMoveX:
		return m.move(cmd, &m.state.X, MaxXTravel)

	case wire.OpMoveY:
		return m.move(cmd, &m.state.Y, MaxYTravel)

	case wire.OpCalibrate:
		if cmd.NumArgs != 0 {
			return fmt.Errorf("%w: calibrate takes none, got %d", ErrBadArgCount, cmd.NumArgs)
		}
		m.state.Calibrating = true
		return nil

	case wire.OpAutoCal:
		if cmd.NumArgs != 0 {
			return fmt.Errorf("%w: auto calibrate takes none, got %d", ErrBadArgCount, cmd.NumArgs)
		}
		// Auto calibration sweeps both axes to their switches and ends at
		// the home position with the full travel recorded.
		m.state.MinX, m.state.MaxX = 0, MaxXTravel
		m.state.MinY, m.state.MaxY = 0, MaxYTravel
		m.state.X, m.state.Y = 0, 0
		m.state.Homed = true
		m.state.Calibrating = false
		return nil

	case wire.OpHome:
		if cmd.NumArgs != 0 {
			return fmt.Errorf("%w: home takes none, got %d", ErrBadArgCount, cmd.NumArgs)
		}
		m.state.X, m.state.Y = 0, 0
		m.state.Homed = true
		return nil

	case wire.OpStatus:
		// Status is a pure read; the controller reports the snapshot.
		return nil

	case wire.OpSetOrigin:
		if cmd.NumArgs != 0 {
			return fmt.Errorf("%w: set origin takes none, got %d", ErrBadArgCount, cmd.NumArgs)
		}
		m.state.OriginX = m.state.X
		m.state.OriginY = m.state.Y
		return nil

	case wire.OpGoTo:
		return m.goTo(cmd)

	case wire.OpMarkMin:
		if !m.state.Calibrating {
			return ErrNotCalibrating
		}
		m.state.MinX = m.state.X
		m.state.MinY = m.state.Y
		return nil

	case wire.OpMarkMax:
		if !m.state.Calibrating {
			return ErrNotCalibrating
		}
		m.state.MaxX = m.state.X
		m.state.MaxY = m.state.Y
		return nil

	case wire.OpQuitCal:
		if !m.state.Calibrating {
			return ErrNotCalibrating
		}
		m.state.Calibrating = false
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Op)
	}
}

// move advances one axis by the commanded amount, or by CalibrationStep if
// the command carries no amount. The position must stay on the physical
// travel.
func (m *SimMachine) move(cmd wire.Command, pos *int, limit int) error {
	if cmd.NumArgs > 1 {
		return fmt.Errorf("%w: move takes at most one, got %d", ErrBadArgCount, cmd.NumArgs)
	}

	delta := CalibrationStep
	if cmd.NumArgs == 1 {
		delta = cmd.Args[0]
	}

	target := *pos + delta
	if target < 0 || target > limit {
		return fmt.Errorf("%w: step %d not in [0,%d]", ErrOutOfRange, target, limit)
	}

	*pos = target
	return nil
}

// goTo moves to a virtual coordinate, scaled onto the calibrated travel and
// offset by the origin.
func (m *SimMachine) goTo(cmd wire.Command) error {
	if cmd.NumArgs != 2 {
		return fmt.Errorf("%w: go to takes two, got %d", ErrBadArgCount, cmd.NumArgs)
	}

	vx, vy := cmd.Args[0], cmd.Args[1]
	if vx < 0 || vx > VirtualWidth || vy < 0 || vy > VirtualHeight {
		return fmt.Errorf("%w: virtual (%d,%d) not in %dx%d", ErrOutOfRange, vx, vy, VirtualWidth, VirtualHeight)
	}

	x := m.state.MinX + vx*(m.state.MaxX-m.state.MinX)/VirtualWidth
	y := m.state.MinY + vy*(m.state.MaxY-m.state.MinY)/VirtualHeight

	x += m.state.OriginX
	y += m.state.OriginY
	if x < 0 || x > MaxXTravel || y < 0 || y > MaxYTravel {
		return fmt.Errorf("%w: step (%d,%d) outside travel", ErrOutOfRange, x, y)
	}

	m.state.X, m.state.Y = x, y
	return nil
}
