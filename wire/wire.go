package wire

// Terminal control bytes for the plotter serial protocol. A command line is
// terminated by either CR or LF; the protocol has no other framing and no
// escaping.
const (
	CR byte = '\r'
	LF byte = '\n'

	CRLF = "\r\n"
)

// Opcodes understood by the plotter. Each command line starts with exactly
// one of these characters, optionally followed by comma-separated signed
// integer arguments.
const (
	OpNone      byte = 0   // sentinel: no opcode received yet
	OpMoveX     byte = 'x' // X motor move
	OpMoveY     byte = 'y' // Y motor move
	OpCalibrate byte = 'c' // enter manual calibration
	OpAutoCal   byte = 'a' // run auto calibration
	OpHome      byte = 'h' // home both axes
	OpStatus    byte = 's' // report status
	OpSetOrigin byte = 'p' // set origin to current position
	OpGoTo      byte = 'g' // go to virtual position
	OpMarkMin   byte = 'm' // mark axis minimum during calibration
	OpMarkMax   byte = 'M' // mark axis maximum during calibration
	OpQuitCal   byte = 'q' // quit calibration
)

// Response line prefixes written back to the host.
const (
	RespReady = "ready"
	RespOK    = "ok"
	RespErr   = "error"
	RespPos   = "pos" // "pos <x>,<y>"
)

const (
	// MaxArgs is the argument capacity of a command. A fifth argument
	// rejects the whole line.
	MaxArgs = 4

	// BufferSize is the capacity of the argument accumulation buffer,
	// including the terminator slot. Bytes beyond it are dropped.
	BufferSize = 32
)

// ValidOp reports whether b is a recognized opcode character.
func ValidOp(b byte) bool {
	switch b {
	case OpMoveX, OpMoveY, OpCalibrate, OpAutoCal, OpHome, OpStatus,
		OpSetOrigin, OpGoTo, OpMarkMin, OpMarkMax, OpQuitCal:
		return true
	default:
		return false
	}
}

// Command is one parsed host command: a single-letter opcode plus up to
// MaxArgs signed integer arguments.
//
// A Command is the parser's pending record, reused across commands. Valid is
// true exactly when a complete, well-formed command is ready for consumption
// and has not yet been reset. NumArgs counts the arguments actually
// supplied, not the capacity of Args.
type Command struct {
	Op      byte
	Args    [MaxArgs]int
	NumArgs int
	Valid   bool
}

// state tracks which phase of a command line the parser is in. There is no
// terminal state; completion is signaled by Command.Valid.
type state int

const (
	awaitingOpcode state = iota
	readingArgument
	awaitingNextArg
)
