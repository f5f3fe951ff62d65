package message

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

type Sink interface {
	Write(m Message) error
}

// Writer encodes every message as a single line of JSON.
type Writer struct {
	enc *json.Encoder
}

func NewWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{enc: enc}
}

func (w *Writer) Write(m Message) error {
	if err := w.enc.Encode(m); err != nil {
		return errors.Wrapf(err, "failed to write %s message", m.Type())
	}

	return nil
}
