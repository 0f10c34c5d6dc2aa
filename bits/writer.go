package bits

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// BitWriter encodes into a fixed buffer, writing past its end panics.
type BitWriter struct {
	pos   int
	data  []byte
	size  int
	order binary.ByteOrder
}

func NewEncodeBuffer(buf []byte, order binary.ByteOrder) BitWriter {

	result := BitWriter{}

	result.data = buf
	result.pos = 0
	result.size = len(buf)
	result.order = order

	return result
}

func (this BitWriter) Position() int {
	return this.pos
}

func (this *BitWriter) ensure(n int) {
	if (this.pos + n) > this.size {
		panic(fmt.Sprintf("bit writer out of space on pos : %d, need %d, size : %d", this.pos, n, this.size))
	}
}

func (this *BitWriter) Write(p []byte) (n int, err error) {

	if this.pos+len(p) > this.size {
		return 0, errors.New("not enough space")
	}

	n = copy(this.data[this.pos:], p)
	this.pos += n

	return
}

func (this *BitWriter) Bytes() []byte {
	return this.data[:this.pos]
}

func (this *BitWriter) PutUint32(v uint32) {
	this.ensure(4)
	this.order.PutUint32(this.data[this.pos:], v)
	this.pos += 4
}

func (this *BitWriter) PutInt32(v int32) {
	this.PutUint32(uint32(v))
}

func (this *BitWriter) WriteByte(u byte) error {
	if this.pos+1 > this.size {
		return errors.New("not enough space")
	}

	this.data[this.pos] = u
	this.pos++
	return nil
}
