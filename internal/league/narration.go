package league

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/go-playground/validator/v10"
)

// narrationFields is the minimum row width: game_id, inning, half, text
const narrationFields = 4

var validate = validator.New(validator.WithRequiredStructEnabled())

// ReadNarration streams the play-by-play export row by row into fn, in file
// order. The header row is skipped, as are rows with fewer than four fields.
// A row without a game id is a structural error and stops the read.
func ReadNarration(r io.Reader, fn func(models.GameLine) error) error {
	reader := newCSVReader(newEscapeReader(r))

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("read narration header: %w", err)
	}

	seq, row := 0, 1
	for {
		record, err := reader.Read()
		row++
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read narration row %d: %w", row, err)
		}
		if len(record) < narrationFields {
			continue
		}

		inning, _ := strconv.Atoi(strings.TrimSpace(record[1]))
		line := models.GameLine{
			GameID:   strings.TrimSpace(record[0]),
			Sequence: seq,
			Inning:   inning,
			Half:     strings.TrimSpace(record[2]),
			Text:     record[3],
		}
		if err := validate.Struct(line); err != nil {
			return fmt.Errorf("narration row %d: %w", row, err)
		}
		seq++

		if err := fn(line); err != nil {
			return err
		}
	}
}

// escapeReader rewrites backslash escapes into RFC 4180 quoting before the
// csv reader sees them, so an escaped quote never ends a field. An unquoted
// field that opens with \" is wrapped in quotes of its own; \\ becomes a
// single backslash.
type escapeReader struct {
	src        *bufio.Reader
	pending    []byte
	quoted     bool
	wrapped    bool
	fieldStart bool
	err        error
}

func newEscapeReader(r io.Reader) *escapeReader {
	return &escapeReader{src: bufio.NewReader(r), fieldStart: true}
}

func (e *escapeReader) Read(p []byte) (int, error) {
	for len(e.pending) == 0 && e.err == nil {
		e.step()
	}
	if len(e.pending) == 0 {
		return 0, e.err
	}
	n := copy(p, e.pending)
	e.pending = e.pending[n:]
	return n, nil
}

// step translates one input byte, reading ahead one more when needed
func (e *escapeReader) step() {
	b, err := e.src.ReadByte()
	if err != nil {
		if e.wrapped {
			e.closeWrap()
		}
		e.err = err
		return
	}

	switch b {
	case '\\':
		next, ok := e.peek()
		switch {
		case ok && next == '"':
			e.skip()
			switch {
			case e.quoted:
				e.emit('"', '"')
			case e.fieldStart:
				e.emit('"', '"', '"')
				e.quoted, e.wrapped = true, true
			default:
				e.emit('"')
			}
		case ok && next == '\\':
			e.skip()
			e.emit('\\')
		default:
			e.emit(b)
		}
		e.fieldStart = false
	case '"':
		switch {
		case e.wrapped:
			e.emit('"', '"')
		case e.quoted:
			if next, ok := e.peek(); ok && next == '"' {
				e.skip()
				e.emit('"', '"')
			} else {
				e.quoted = false
				e.emit(b)
			}
		default:
			e.quoted = e.fieldStart
			e.emit(b)
		}
		e.fieldStart = false
	case ',', '\n':
		if e.wrapped {
			e.closeWrap()
		}
		e.emit(b)
		if !e.quoted {
			e.fieldStart = true
		}
	case '\r':
		if next, ok := e.peek(); ok && next == '\n' && e.wrapped {
			e.closeWrap()
		}
		e.emit(b)
	default:
		e.emit(b)
		e.fieldStart = false
	}
}

func (e *escapeReader) peek() (byte, bool) {
	next, err := e.src.Peek(1)
	if err != nil {
		return 0, false
	}
	return next[0], true
}

func (e *escapeReader) skip() {
	_, _ = e.src.ReadByte()
}

func (e *escapeReader) closeWrap() {
	e.emit('"')
	e.quoted, e.wrapped = false, false
}

func (e *escapeReader) emit(b ...byte) {
	e.pending = append(e.pending, b...)
}

// LoadNarration resolves the play-by-play export and reads it fully.
// The returned path is empty when no export exists, which is not an error.
func LoadNarration(base, override string) ([]models.GameLine, string, error) {
	path, err := ResolveSource(base, override, NarrationCandidates)
	if errors.Is(err, ErrSourceNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("load narration: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open narration: %w", err)
	}
	defer f.Close()

	var lines []models.GameLine
	err = ReadNarration(f, func(line models.GameLine) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("load narration %s: %w", path, err)
	}
	return lines, path, nil
}
