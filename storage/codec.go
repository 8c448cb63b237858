package storage

import (
	"math"
	"time"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/Antonite/oware_a3c/actorcritic"
)

// Checkpoint is a saved copy of every network parameter.
type Checkpoint struct {
	ID      string
	Created time.Time
	Params  []actorcritic.Param
}

// Field numbers of the wire messages:
//
//	message Checkpoint { string id = 1; int64 created = 2; repeated Tensor tensors = 3; }
//	message Tensor { string name = 1; repeated int64 shape = 2; repeated double data = 3; }
const (
	fieldID      protowire.Number = 1
	fieldCreated protowire.Number = 2
	fieldTensor  protowire.Number = 3

	fieldName  protowire.Number = 1
	fieldShape protowire.Number = 2
	fieldData  protowire.Number = 3
)

// Encode serializes c as a protobuf message and compresses it with snappy.
func Encode(c *Checkpoint) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldID, protowire.BytesType)
	b = protowire.AppendString(b, c.ID)
	b = protowire.AppendTag(b, fieldCreated, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.Created.UnixNano()))
	for _, p := range c.Params {
		b = protowire.AppendTag(b, fieldTensor, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeTensor(p))
	}
	return snappy.Encode(nil, b)
}

func encodeTensor(p actorcritic.Param) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldName, protowire.BytesType)
	b = protowire.AppendString(b, p.Name)

	var shape []byte
	for _, d := range p.Shape {
		shape = protowire.AppendVarint(shape, uint64(d))
	}
	b = protowire.AppendTag(b, fieldShape, protowire.BytesType)
	b = protowire.AppendBytes(b, shape)

	data := make([]byte, 0, 8*len(p.Data))
	for _, v := range p.Data {
		data = protowire.AppendFixed64(data, math.Float64bits(v))
	}
	b = protowire.AppendTag(b, fieldData, protowire.BytesType)
	return protowire.AppendBytes(b, data)
}

// Decode reverses Encode.
func Decode(data []byte) (*Checkpoint, error) {
	b, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "decompress checkpoint")
	}

	c := &Checkpoint{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errors.Wrap(protowire.ParseError(n), "checkpoint tag")
		}
		b = b[n:]

		switch {
		case num == fieldID && typ == protowire.BytesType:
			c.ID, n = protowire.ConsumeString(b)
		case num == fieldCreated && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			c.Created = time.Unix(0, int64(v)).UTC()
		case num == fieldTensor && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				p, err := decodeTensor(raw)
				if err != nil {
					return nil, err
				}
				c.Params = append(c.Params, p)
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, errors.Wrapf(protowire.ParseError(n), "checkpoint field %d", num)
		}
		b = b[n:]
	}
	return c, nil
}

func decodeTensor(b []byte) (actorcritic.Param, error) {
	var p actorcritic.Param
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return p, errors.Wrap(protowire.ParseError(n), "tensor tag")
		}
		b = b[n:]

		switch {
		case num == fieldName && typ == protowire.BytesType:
			p.Name, n = protowire.ConsumeString(b)
		case num == fieldShape && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			for len(packed) > 0 && n >= 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					n = m
					break
				}
				p.Shape = append(p.Shape, int(v))
				packed = packed[m:]
			}
		case num == fieldData && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			if n >= 0 && len(packed)%8 != 0 {
				return p, errors.Errorf("tensor %s: %d data bytes is not a whole number of doubles", p.Name, len(packed))
			}
			p.Data = make([]float64, 0, len(packed)/8)
			for len(packed) > 0 && n >= 0 {
				v, m := protowire.ConsumeFixed64(packed)
				p.Data = append(p.Data, math.Float64frombits(v))
				packed = packed[m:]
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return p, errors.Wrapf(protowire.ParseError(n), "tensor %s field %d", p.Name, num)
		}
		b = b[n:]
	}
	if p.Size() != len(p.Data) {
		return p, errors.Errorf("tensor %s: shape %v does not match %d values", p.Name, p.Shape, len(p.Data))
	}
	return p, nil
}
