package wire

import (
	"io"
	"log/slog"
)

// Parser reconstructs commands from an unbounded byte stream, one byte per
// Feed call. The transport delivers bytes at arbitrary rates, so the parser
// keeps all of its progress (parse phase, accumulation buffer and the
// pending Command record) between calls.
//
// A Parser is not safe for concurrent use. The consumer may read the record
// returned by Pending at any time, must check Command.Valid before acting on
// it, and must call Reset after consuming a valid command. Reset is the only
// operation that clears Valid; a consumer that is slow to do so risks a
// later completed command overwriting the record.
type Parser struct {
	cmd Command

	state      state
	buf        [BufferSize]byte
	bufPos     int
	currentArg int

	log *slog.Logger
}

// NewParser returns a parser in the awaiting-opcode state. logger receives
// the diagnostic side channel (rejected opcodes, argument overflow,
// malformed separators); nil discards diagnostics.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{log: logger}
}

// Pending returns the pending command record. The record is reused across
// commands; callers that need to keep a command past the next Feed or Reset
// must copy it.
func (p *Parser) Pending() *Command {
	return &p.cmd
}

// Reset clears the pending record and returns the parser to the
// awaiting-opcode state. It is idempotent and is the sole mutation a
// consumer is permitted to perform.
func (p *Parser) Reset() {
	p.cmd = Command{}
	p.bufPos = 0
	p.currentArg = 0
	p.state = awaitingOpcode
}

// Feed processes one received byte. It never blocks and is safe to call with
// arbitrary bytes, including control characters, at any rate. Completion is
// observed via Pending().Valid, not a return value.
//
// Every error path (unrecognized opcode, fifth argument, non-number after a
// comma) emits a diagnostic, performs a full Reset and leaves the parser
// live for the next line. The host is expected to resend.
func (p *Parser) Feed(b byte) {
	// Line terminators complete the pending command regardless of state.
	if b == CR || b == LF {
		if p.state == readingArgument && p.bufPos > 0 {
			p.cmd.Args[p.currentArg] = p.finishArg()
			p.cmd.NumArgs = p.currentArg + 1
			p.cmd.Valid = true
		} else if p.cmd.Op != OpNone && p.state != awaitingOpcode {
			// Command with no pending argument digits, e.g. "h" alone
			// or a line ending right after a comma.
			p.cmd.Valid = true
		}
		// A stray terminator before any opcode is ignored.
		return
	}

	switch p.state {
	case awaitingOpcode:
		if b == ' ' || b == '\t' {
			return
		}
		if ValidOp(b) {
			p.cmd.Op = b
			p.state = readingArgument
			p.bufPos = 0
			return
		}
		p.log.Warn("invalid command character", "char", printable(b))
		p.Reset()

	case readingArgument:
		if b == ',' {
			p.cmd.Args[p.currentArg] = p.finishArg()
			p.currentArg++
			if p.currentArg >= MaxArgs {
				p.log.Warn("too many arguments", "op", printable(p.cmd.Op))
				p.Reset()
				return
			}
			p.state = awaitingNextArg
			return
		}
		// Anything that cannot be part of a number, and anything past the
		// buffer capacity, is dropped without a diagnostic.
		if (isDigit(b) || b == '-' || b == '+' || b == ' ' || b == '\t') &&
			p.bufPos < BufferSize-1 {
			p.buf[p.bufPos] = b
			p.bufPos++
		}

	case awaitingNextArg:
		if b == ' ' || b == '\t' {
			return
		}
		if isDigit(b) || b == '-' || b == '+' {
			p.state = readingArgument
			p.buf[0] = b
			p.bufPos = 1
			return
		}
		p.log.Warn("expected number after comma", "char", printable(b))
		p.Reset()
	}
}

// finishArg consumes the accumulation buffer as one argument value and
// resets the cursor. A buffer that is empty or all whitespace yields 0.
func (p *Parser) finishArg() int {
	buf := p.buf[:p.bufPos]
	p.bufPos = 0
	for _, c := range buf {
		if c != ' ' && c != '\t' {
			return atoi(buf)
		}
	}
	return 0
}

// atoi lexes buf as a signed decimal integer: optional leading whitespace,
// an optional single sign, then digits, stopping at the first non-digit.
// There is no overflow checking and a bare sign lexes to 0; the caller has
// already restricted what bytes can reach the buffer.
func atoi(buf []byte) int {
	i := 0
	for i < len(buf) && (buf[i] == ' ' || buf[i] == '\t') {
		i++
	}

	negative := false
	if i < len(buf) {
		switch buf[i] {
		case '-':
			negative = true
			i++
		case '+':
			i++
		}
	}

	n := 0
	for i < len(buf) && isDigit(buf[i]) {
		n = n*10 + int(buf[i]-'0')
		i++
	}

	if negative {
		return -n
	}
	return n
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// printable renders a received byte for diagnostics without emitting raw
// control characters into the log.
func printable(b byte) string {
	if b >= 0x20 && b < 0x7f {
		return string(b)
	}
	const hex = "0123456789abcdef"
	return string([]byte{'0', 'x', hex[b>>4], hex[b&0xf]})
}
