package artifact

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/zjrosen/modelreg/internal/predictor"
)

// FormatGob is the artifact format written by GobCodec.
const FormatGob = "gob"

// ErrMalformed is returned when an artifact payload cannot be decoded.
var ErrMalformed = errors.New("malformed artifact")

var gobMagic = [4]byte{'M', 'R', 'E', 'G'}

const gobFormatVersion byte = 1

// Codec serializes models to artifact payloads.
type Codec interface {
	// Format names the payload format; it becomes the artifact key extension.
	Format() string
	Encode(w io.Writer, m predictor.Model) error
	Decode(r io.Reader) (predictor.Model, error)
}

// GobCodec encodes models with encoding/gob behind a magic header.
// Only model types registered with gob can be encoded.
type GobCodec struct{}

func (GobCodec) Format() string {
	return FormatGob
}

func (GobCodec) Encode(w io.Writer, m predictor.Model) error {
	if m == nil {
		return errors.New("cannot encode nil model")
	}
	var buf bytes.Buffer
	buf.Write(gobMagic[:])
	buf.WriteByte(gobFormatVersion)
	if err := gob.NewEncoder(&buf).Encode(&m); err != nil {
		return fmt.Errorf("encoding %s model: %w", m.Kind(), err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (GobCodec) Decode(r io.Reader) (predictor.Model, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrMalformed, err)
	}
	if !bytes.Equal(header[:4], gobMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformed)
	}
	if header[4] != gobFormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrMalformed, header[4])
	}
	var m predictor.Model
	if err := gob.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: empty model", ErrMalformed)
	}
	return m, nil
}

var _ Codec = GobCodec{}
