// Package kfmt implements the kernel's diagnostic output: a Printf that does
// not allocate, an early ring buffer that captures output before a sink is
// attached, a line-prefixing writer and Panic.
package kfmt

import (
	"io"
	"strconv"
	"unsafe"
)

// maxBufSize defines the scratch buffer size for formatting numbers. It fits
// a 64-bit value in base 8 plus a sign.
const maxBufSize = 24

var (
	errMissingArg   = []byte("%!(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errBadVerb      = []byte("%!(BADVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")
	percentSign     = []byte("%")

	// numBuf is a shared scratch buffer for formatting integers.
	numBuf [maxBufSize]byte

	// padBuf holds a single padding character written repeatedly by pad.
	padBuf = []byte(" ")

	// earlyPrintBuffer stores Printf output until an output sink is set.
	earlyPrintBuffer ringBuffer

	// outputSink is where Printf sends its output. If nil, output goes to
	// earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the default target for calls to Printf to w and flushes
// any data accumulated in the early print buffer into it. Passing nil sends
// subsequent output back to the early print buffer.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		_, _ = io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the writer that Printf currently targets.
func GetOutputSink() io.Writer {
	if outputSink == nil {
		return &earlyPrintBuffer
	}
	return outputSink
}

// Printf formats according to a format specifier and writes to the active
// output sink. It is a thin wrapper around Fprintf.
func Printf(format string, args ...interface{}) {
	Fprintf(GetOutputSink(), format, args...)
}

// Fprintf is a minimal Fprintf that never allocates, so it can be used while
// the memory subsystem is still bootstrapping. It supports the following
// subset of the fmt verbs:
//
//	%s  string or []byte
//	%d  base 10 integer, left-padded with spaces
//	%x  base 16 integer (lower-case), left-padded with zeroes
//	%o  base 8 integer, left-padded with zeroes
//	%t  "true" or "false"
//	%%  a literal percent sign
//
// An optional decimal width may precede the verb. Only the built-in string,
// integer and bool types are recognized; named types must be converted by
// the caller.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex  int
		textStart int
	)

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}

		writeString(w, format[textStart:i])

		i++
		width := 0
		for ; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == len(format) {
			_, _ = w.Write(errNoVerb)
			textStart = i
			break
		}

		verb := format[i]
		textStart = i + 1

		if verb == '%' {
			_, _ = w.Write(percentSign)
			continue
		}

		if argIndex >= len(args) {
			_, _ = w.Write(errMissingArg)
			continue
		}

		arg := args[argIndex]
		argIndex++

		switch verb {
		case 's':
			fmtString(w, arg, width)
		case 'd':
			fmtInt(w, arg, 10, width, ' ')
		case 'x':
			fmtInt(w, arg, 16, width, '0')
		case 'o':
			fmtInt(w, arg, 8, width, '0')
		case 't':
			fmtBool(w, arg, width)
		default:
			_, _ = w.Write(errBadVerb)
		}
	}

	if textStart < len(format) {
		writeString(w, format[textStart:])
	}

	if argIndex < len(args) {
		_, _ = w.Write(errExtraArg)
	}
}

func fmtString(w io.Writer, arg interface{}, width int) {
	switch v := arg.(type) {
	case string:
		pad(w, ' ', width-len(v))
		writeString(w, v)
	case []byte:
		pad(w, ' ', width-len(v))
		_, _ = w.Write(v)
	default:
		_, _ = w.Write(errWrongArgType)
	}
}

func fmtBool(w io.Writer, arg interface{}, width int) {
	v, ok := arg.(bool)
	if !ok {
		_, _ = w.Write(errWrongArgType)
		return
	}

	out := falseValue
	if v {
		out = trueValue
	}
	pad(w, ' ', width-len(out))
	_, _ = w.Write(out)
}

func fmtInt(w io.Writer, arg interface{}, base int, width int, padChar byte) {
	var digits []byte

	switch v := arg.(type) {
	case int:
		digits = strconv.AppendInt(numBuf[:0], int64(v), base)
	case int8:
		digits = strconv.AppendInt(numBuf[:0], int64(v), base)
	case int16:
		digits = strconv.AppendInt(numBuf[:0], int64(v), base)
	case int32:
		digits = strconv.AppendInt(numBuf[:0], int64(v), base)
	case int64:
		digits = strconv.AppendInt(numBuf[:0], v, base)
	case uint:
		digits = strconv.AppendUint(numBuf[:0], uint64(v), base)
	case uint8:
		digits = strconv.AppendUint(numBuf[:0], uint64(v), base)
	case uint16:
		digits = strconv.AppendUint(numBuf[:0], uint64(v), base)
	case uint32:
		digits = strconv.AppendUint(numBuf[:0], uint64(v), base)
	case uint64:
		digits = strconv.AppendUint(numBuf[:0], v, base)
	case uintptr:
		digits = strconv.AppendUint(numBuf[:0], uint64(v), base)
	default:
		_, _ = w.Write(errWrongArgType)
		return
	}

	// Zero padding goes after the sign
	if padChar == '0' && len(digits) != 0 && digits[0] == '-' {
		_, _ = w.Write(digits[:1])
		pad(w, padChar, width-len(digits))
		_, _ = w.Write(digits[1:])
		return
	}

	pad(w, padChar, width-len(digits))
	_, _ = w.Write(digits)
}

// pad writes count copies of padChar to w.
func pad(w io.Writer, padChar byte, count int) {
	padBuf[0] = padChar
	for ; count > 0; count-- {
		_, _ = w.Write(padBuf)
	}
}

// writeString writes s to w without converting it to a heap-allocated
// []byte. Writers must not retain or modify the slice they receive.
func writeString(w io.Writer, s string) {
	if len(s) == 0 {
		return
	}
	_, _ = w.Write(unsafe.Slice(unsafe.StringData(s), len(s)))
}
