package golog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
)

const timeFormat = "2006-01-02T15:04:05-0700"

type Formatter interface {
	Format(e *Entry) []byte
}

type FormatterFunc func(*Entry) []byte

func (f FormatterFunc) Format(e *Entry) []byte {
	return f(e)
}

// LogfmtFormatter formats entries as logfmt key=value pairs.
func LogfmtFormatter() Formatter {
	return FormatterFunc(func(e *Entry) []byte {
		buf := &bytes.Buffer{}
		buf.WriteString("t=")
		buf.WriteString(e.Time.Format(timeFormat))
		buf.WriteString(" lvl=")
		buf.WriteString(e.Lvl.String())
		buf.WriteString(" msg=")
		buf.WriteString(strconv.Quote(e.Msg))
		if e.Src != "" {
			buf.WriteString(" src=")
			buf.WriteString(strconv.Quote(e.Src))
		}
		for i := 0; i+1 < len(e.Ctx); i += 2 {
			k, ok := e.Ctx[i].(string)
			if !ok {
				buf.WriteString(" _error=")
			} else {
				buf.WriteByte(' ')
				buf.WriteString(k)
				buf.WriteByte('=')
			}
			buf.WriteString(formatValue(e.Ctx[i+1]))
		}
		buf.WriteByte('\n')
		return buf.Bytes()
	})
}

func formatValue(value interface{}) string {
	if value == nil {
		return "nil"
	}
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', 3, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return strconv.Quote(v)
	case error:
		return strconv.Quote(v.Error())
	}
	return strconv.Quote(fmt.Sprintf("%+v", value))
}

// IOHandler writes WARN and above to err and everything else to out.
func IOHandler(out, err io.Writer, fmtr Formatter) Handler {
	return &ioHandler{out: out, err: err, fmtr: fmtr}
}

type ioHandler struct {
	out, err io.Writer
	fmtr     Formatter
}

func (h *ioHandler) Log(e *Entry) error {
	m := h.fmtr.Format(e)
	if e.Lvl <= WARN {
		_, err := h.err.Write(m)
		return err
	}
	_, err := h.out.Write(m)
	return err
}

// DefaultHandler is what the default logger writes through until replaced.
var DefaultHandler = IOHandler(os.Stdout, os.Stderr, LogfmtFormatter())
