package output

import "io"

// flushIfPossible pushes buffered output through writers that buffer, so
// NDJSON consumers see each line as it is written.
func flushIfPossible(w io.Writer) error {
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
