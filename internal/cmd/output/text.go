package output

import (
	"fmt"
	"io"
	"strings"
)

// TextHandler renders items as human-readable text via a Printer.
type TextHandler[T any] struct {
	out     io.Writer
	printer Printer[T]
}

func NewTextHandler[T any](w io.Writer, p Printer[T]) *TextHandler[T] {
	return &TextHandler[T]{
		out:     w,
		printer: p,
	}
}

// Writer returns the underlying io.Writer where text will be written.
func (h *TextHandler[T]) Writer() io.Writer {
	return h.out
}

func (h *TextHandler[T]) HandleResult(item T) error {
	return h.HandleResults(item)
}

func (h *TextHandler[T]) HandleResults(items ...T) error {
	if len(items) == 0 {
		_, _ = io.WriteString(h.out, "No results\n")
		return nil
	}

	h.printer.Header(h.out, len(items))

	for _, it := range items {
		if err := h.printer.Item(h.out, it); err != nil {
			return err
		}
	}

	h.printer.Footer(h.out, len(items))

	return nil
}

func (h *TextHandler[T]) HandleError(err error) error {
	return err
}

// ForFormat returns the Handler matching the requested output format.
func ForFormat[T any](format string, w io.Writer, p Printer[T]) (Handler[T], error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return NewTextHandler[T](w, p), nil
	case "json":
		return NewJSONHandler[T](w, 2), nil
	case "yaml":
		return NewYAMLHandler[T](w, 2), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q", format)
	}
}
