package chunk

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Tnze/go-mc/nbt"
	"github.com/dot5enko/region-fixer/compression"
)

var ErrMalformed = errors.New("malformed chunk payload")

// Decode reads one named root compound from r, at most MaxDecodedBytes of it.
// Fields the fixer does not check are skipped without being decoded.
func Decode(r io.Reader) (*Chunk, error) {

	data, readErr := io.ReadAll(io.LimitReader(r, MaxDecodedBytes+1))
	if readErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, readErr.Error())
	}

	if len(data) > MaxDecodedBytes {
		return nil, fmt.Errorf("%w: payload larger than %d bytes", ErrMalformed, MaxDecodedBytes)
	}

	guardErr := checkPayload(data)
	if guardErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, guardErr.Error())
	}

	var c Chunk

	_, decodeErr := nbt.NewDecoder(bytes.NewReader(data)).Decode(&c)
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, decodeErr.Error())
	}

	return &c, nil
}

// Encode writes v as an unnamed root compound.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer

	encodeErr := nbt.NewEncoder(&buf).Encode(v, "")
	if encodeErr != nil {
		return nil, fmt.Errorf("unable to encode chunk: %s", encodeErr.Error())
	}

	return buf.Bytes(), nil
}

// EncodeCompressed encodes v and compresses the result with zlib, ready for Region.WriteChunk.
func EncodeCompressed(v any) ([]byte, error) {
	raw, encodeErr := Encode(v)
	if encodeErr != nil {
		return nil, encodeErr
	}

	var out bytes.Buffer
	compressErr := compression.CompressZlib(raw, &out)
	if compressErr != nil {
		return nil, fmt.Errorf("unable to compress chunk: %s", compressErr.Error())
	}

	return out.Bytes(), nil
}
