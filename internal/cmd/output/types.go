package output

import "io"

// Handler renders results of type T in one output format.
type Handler[T any] interface {
	// Writer returns the io.Writer this Handler will write to.
	Writer() io.Writer

	// HandleResult renders a single item.
	HandleResult(item T) error

	// HandleResults renders a collection of items.
	HandleResults(items ...T) error

	// HandleError renders the error.
	HandleError(err error) error
}

// Printer renders items of type T as human-readable text. It is consumed by
// TextHandler; structured formats ignore it.
type Printer[T any] interface {
	// Header is called once before the items.
	Header(w io.Writer, count int)

	// Item prints one element.
	Item(w io.Writer, elem T) error

	// Footer is called once after the items.
	Footer(w io.Writer, count int)
}

// ResultsPayload is a generic wrapper for multiple result values,
// serialized with the key "results".
type ResultsPayload[T any] struct {
	Results []T `json:"results" yaml:"results"`
}

// ResultPayload is a generic wrapper for a single result value,
// serialized with the key "result".
type ResultPayload[T any] struct {
	Result T `json:"result" yaml:"result"`
}

// ErrorPayload represents an error message, serialized with the key "error".
type ErrorPayload struct {
	Error string `json:"error" yaml:"error"`
}
