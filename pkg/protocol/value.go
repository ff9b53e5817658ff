package protocol

import (
	"fmt"
	"math"
)

// Value tags for prop values.
const (
	valueNil    byte = 0x00
	valueBool   byte = 0x01
	valueInt    byte = 0x02
	valueFloat  byte = 0x03
	valueString byte = 0x04
)

// WriteValue encodes a prop value. Integers of any width decode as int64,
// floats as float64; other types are sent as their fmt.Sprint form.
func (e *Encoder) WriteValue(v any) {
	switch x := v.(type) {
	case nil:
		e.PutByte(valueNil)
	case bool:
		e.PutByte(valueBool)
		e.WriteBool(x)
	case int:
		e.writeInt(int64(x))
	case int8:
		e.writeInt(int64(x))
	case int16:
		e.writeInt(int64(x))
	case int32:
		e.writeInt(int64(x))
	case int64:
		e.writeInt(x)
	case uint8:
		e.writeInt(int64(x))
	case uint16:
		e.writeInt(int64(x))
	case uint32:
		e.writeInt(int64(x))
	case uint:
		e.writeUint(uint64(x))
	case uint64:
		e.writeUint(x)
	case float32:
		e.PutByte(valueFloat)
		e.WriteFloat64(float64(x))
	case float64:
		e.PutByte(valueFloat)
		e.WriteFloat64(x)
	case string:
		e.PutByte(valueString)
		e.WriteString(x)
	default:
		e.PutByte(valueString)
		e.WriteString(fmt.Sprint(x))
	}
}

func (e *Encoder) writeInt(v int64) {
	e.PutByte(valueInt)
	e.WriteSvarint(v)
}

func (e *Encoder) writeUint(v uint64) {
	if v > math.MaxInt64 {
		e.PutByte(valueFloat)
		e.WriteFloat64(float64(v))
		return
	}
	e.writeInt(int64(v))
}

// ReadValue decodes a value written by WriteValue.
func (d *Decoder) ReadValue() (any, error) {
	tag, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case valueNil:
		return nil, nil
	case valueBool:
		return d.ReadBool()
	case valueInt:
		return d.ReadSvarint()
	case valueFloat:
		return d.ReadFloat64()
	case valueString:
		return d.ReadString()
	}
	return nil, fmt.Errorf("protocol: unknown value tag 0x%02x", tag)
}
