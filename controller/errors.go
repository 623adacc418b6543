package controller

import "errors"

var (
	// ErrNoDialer is returned when a Controller is constructed without a
	// Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order
	// to establish a connection to the plotter.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a
	// Controller that has not been successfully initialized.
	ErrNotInitialized = errors.New("controller not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Controller
	// that has already been closed, or when commands are sent after Close.
	ErrAlreadyClosed = errors.New("controller already closed")

	// ErrLoopRunning is returned when Loop is called while another Loop
	// invocation is still active. The Loop is the only reader of the
	// transport and must not be duplicated.
	ErrLoopRunning = errors.New("loop already running")
)

var (
	// ErrUnknownCommand is returned by a Machine for an opcode it does not
	// implement.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrBadArgCount is returned by a Machine when a command carries the
	// wrong number of arguments for its opcode. The wire parser only
	// checks the grammar; argument counts are semantic and checked here.
	ErrBadArgCount = errors.New("wrong number of arguments")

	// ErrOutOfRange is returned when a requested position lies outside the
	// virtual coordinate space or the physical travel limits.
	ErrOutOfRange = errors.New("position out of range")

	// ErrNotCalibrating is returned when a calibration-only command (mark
	// min/max, quit calibration) arrives outside calibration mode.
	ErrNotCalibrating = errors.New("not in calibration mode")
)
