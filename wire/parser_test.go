package wire_test

import (
	"testing"

	"i4.energy/across/plotctl/wire"
)

func feed(p *wire.Parser, input string) {
	for i := 0; i < len(input); i++ {
		p.Feed(input[i])
	}
}

func TestParserAcceptedLines(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		op      byte
		args    []int
		numArgs int
	}{
		{
			name:  "Opcode only",
			input: "h\r",
			op:    'h',
		},
		{
			name:    "Single argument",
			input:   "x100\r",
			op:      'x',
			args:    []int{100},
			numArgs: 1,
		},
		{
			name:    "Two arguments",
			input:   "g10,-5\r",
			op:      'g',
			args:    []int{10, -5},
			numArgs: 2,
		},
		{
			name:    "Four arguments",
			input:   "c1,2,3,4\r",
			op:      'c',
			args:    []int{1, 2, 3, 4},
			numArgs: 4,
		},
		{
			name:    "LF terminator",
			input:   "y-42\n",
			op:      'y',
			args:    []int{-42},
			numArgs: 1,
		},
		{
			name:    "Explicit plus sign",
			input:   "x+7\r",
			op:      'x',
			args:    []int{7},
			numArgs: 1,
		},
		{
			name:    "Whitespace around numbers and separators",
			input:   "g  10 , \t-5 \r",
			op:      'g',
			args:    []int{10, -5},
			numArgs: 2,
		},
		{
			name:  "Leading whitespace before opcode",
			input: " \t s\r",
			op:    's',
		},
		{
			name:  "Blank lines before the command are ignored",
			input: "\r\n\r\nh\r",
			op:    'h',
		},
		{
			name:    "Whitespace-only argument parses to zero",
			input:   "x  \r",
			op:      'x',
			args:    []int{0},
			numArgs: 1,
		},
		{
			name:    "Bare sign parses to zero",
			input:   "x-\r",
			op:      'x',
			args:    []int{0},
			numArgs: 1,
		},
		{
			name:    "Uppercase M opcode is distinct",
			input:   "M1\r",
			op:      'M',
			args:    []int{1},
			numArgs: 1,
		},
		{
			name:    "Garbage bytes inside an argument are dropped",
			input:   "g1a2\r",
			op:      'g',
			args:    []int{12},
			numArgs: 1,
		},
		{
			// The terminator after a comma completes the command, but the
			// argument count only reflects arguments finalized by digits
			// before a terminator.
			name:    "Trailing comma",
			input:   "g1,\r",
			op:      'g',
			args:    []int{1},
			numArgs: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := wire.NewParser(nil)
			feed(p, tt.input)

			cmd := p.Pending()
			if !cmd.Valid {
				t.Fatalf("expected valid command for %q, got %+v", tt.input, cmd)
			}
			if cmd.Op != tt.op {
				t.Errorf("expected opcode %q, got %q", tt.op, cmd.Op)
			}
			if cmd.NumArgs != tt.numArgs {
				t.Errorf("expected %d args, got %d", tt.numArgs, cmd.NumArgs)
			}
			for i, want := range tt.args {
				if cmd.Args[i] != want {
					t.Errorf("args[%d]: expected %d, got %d", i, want, cmd.Args[i])
				}
			}
		})
	}
}

func TestParserRejectedLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "Unrecognized opcode",
			input: "z\r",
		},
		{
			name:  "Fifth argument",
			input: "g1,2,3,4,5\r",
		},
		{
			name:  "Letter after comma",
			input: "g1,a\r",
		},
		{
			// A comma while waiting for the next argument is a malformed
			// separator, not an empty argument.
			name:  "Comma comma",
			input: "x1,,2\r",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := wire.NewParser(nil)
			feed(p, tt.input)

			cmd := p.Pending()
			if cmd.Valid {
				t.Fatalf("expected rejected line %q, got valid %+v", tt.input, cmd)
			}
			if cmd.Op != wire.OpNone {
				t.Errorf("expected opcode cleared after reject, got %q", cmd.Op)
			}
			if cmd.NumArgs != 0 {
				t.Errorf("expected zero args after reject, got %d", cmd.NumArgs)
			}

			// The parser must stay live: the next line parses normally.
			feed(p, "h\r")
			if !p.Pending().Valid || p.Pending().Op != 'h' {
				t.Errorf("parser did not recover after reject: %+v", p.Pending())
			}
		})
	}
}

func TestParserFifthArgumentOverflow(t *testing.T) {
	p := wire.NewParser(nil)
	feed(p, "g1,2,3,4")

	// Four arguments are finalized the moment the fifth is started.
	p.Feed(',')

	cmd := p.Pending()
	if cmd.Valid {
		t.Error("expected record invalid after argument overflow")
	}
	if cmd.Op != wire.OpNone {
		t.Errorf("expected opcode cleared after overflow, got %q", cmd.Op)
	}
	for i, v := range cmd.Args {
		if v != 0 {
			t.Errorf("args[%d]: expected 0 after overflow, got %d", i, v)
		}
	}
}

func TestParserBufferOverflowDropsBytes(t *testing.T) {
	// Fill the accumulation buffer with spaces so the digit that follows is
	// dropped on the floor and the argument parses as empty.
	p := wire.NewParser(nil)
	p.Feed('x')
	for i := 0; i < wire.BufferSize; i++ {
		p.Feed(' ')
	}
	feed(p, "1\r")

	cmd := p.Pending()
	if !cmd.Valid {
		t.Fatalf("expected valid command, got %+v", cmd)
	}
	if cmd.NumArgs != 1 || cmd.Args[0] != 0 {
		t.Errorf("expected single zero argument, got %+v", cmd)
	}
}

func TestParserByteAtATimeExample(t *testing.T) {
	p := wire.NewParser(nil)
	for _, b := range []byte{'g', '1', '0', ',', '-', '5', '\r'} {
		p.Feed(b)
	}

	cmd := p.Pending()
	if !cmd.Valid {
		t.Fatalf("expected valid command, got %+v", cmd)
	}
	if cmd.Op != 'g' || cmd.NumArgs != 2 || cmd.Args[0] != 10 || cmd.Args[1] != -5 {
		t.Errorf("unexpected record: %+v", cmd)
	}
	if cmd.Args[2] != 0 || cmd.Args[3] != 0 {
		t.Errorf("unused argument slots must stay zero: %+v", cmd)
	}
}

func TestParserResetIdempotent(t *testing.T) {
	p := wire.NewParser(nil)
	feed(p, "g10,-5\r")

	p.Reset()
	first := *p.Pending()
	p.Reset()
	second := *p.Pending()

	if first != second {
		t.Errorf("second reset changed the record: %+v vs %+v", first, second)
	}
	if first != (wire.Command{}) {
		t.Errorf("expected zeroed record after reset, got %+v", first)
	}

	// Parsing resumes normally after the double reset.
	feed(p, "s\r")
	if !p.Pending().Valid || p.Pending().Op != 's' {
		t.Errorf("expected fresh command after resets, got %+v", p.Pending())
	}
}

func TestParserSequentialCommands(t *testing.T) {
	p := wire.NewParser(nil)

	feed(p, "g10,20\r")
	if !p.Pending().Valid {
		t.Fatalf("first command not valid: %+v", p.Pending())
	}
	p.Reset()

	feed(p, "x-3\r")
	cmd := p.Pending()
	if !cmd.Valid || cmd.Op != 'x' || cmd.Args[0] != -3 || cmd.NumArgs != 1 {
		t.Errorf("second command wrong: %+v", cmd)
	}
}

func TestParserUnconsumedCommandIsOverwritten(t *testing.T) {
	// The state machine gates on parse state only, never on Valid, and a
	// line terminator never itself begins parsing the next opcode. After a
	// completed command the parser is still reading an argument, so a later
	// opcode byte is dropped while its digits flow into the record: a
	// consumer that does not reset in time keeps the stale opcode but has
	// its arguments clobbered.
	p := wire.NewParser(nil)
	feed(p, "h\r")
	if !p.Pending().Valid {
		t.Fatalf("first command not valid: %+v", p.Pending())
	}

	feed(p, "g1,2\r")
	cmd := p.Pending()
	if cmd.Op != 'h' {
		t.Errorf("expected stale opcode 'h' to survive, got %+v", cmd)
	}
	if !cmd.Valid || cmd.NumArgs != 2 || cmd.Args[0] != 1 || cmd.Args[1] != 2 {
		t.Errorf("expected later digits to overwrite the arguments, got %+v", cmd)
	}
}

func TestValidOp(t *testing.T) {
	for _, b := range []byte("xycahspgmMq") {
		if !wire.ValidOp(b) {
			t.Errorf("expected %q to be a recognized opcode", b)
		}
	}
	for _, b := range []byte{'z', 'X', 'G', '0', ' ', ',', 0} {
		if wire.ValidOp(b) {
			t.Errorf("expected %q to be rejected", b)
		}
	}
}
