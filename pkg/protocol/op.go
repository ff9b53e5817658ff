package protocol

import "fmt"

// OpCode is the type of a host operation.
type OpCode uint8

const (
	OpCreateElement  OpCode = 0x01 // Node, Tag
	OpCreateText     OpCode = 0x02 // Node, Text
	OpCreateComment  OpCode = 0x03 // Node, Text
	OpSetElementText OpCode = 0x04 // Node, Text
	OpSetText        OpCode = 0x05 // Node, Text
	OpInsert         OpCode = 0x06 // Node, Parent, Anchor
	OpRemove         OpCode = 0x07 // Node
	OpSetProp        OpCode = 0x08 // Node, Key, Value
	OpRemoveProp     OpCode = 0x09 // Node, Key
	OpSetHandler     OpCode = 0x0A // Node, Key (event name)
	OpRemoveHandler  OpCode = 0x0B // Node, Key (event name)
)

// String returns the string representation of the op code.
func (op OpCode) String() string {
	switch op {
	case OpCreateElement:
		return "CreateElement"
	case OpCreateText:
		return "CreateText"
	case OpCreateComment:
		return "CreateComment"
	case OpSetElementText:
		return "SetElementText"
	case OpSetText:
		return "SetText"
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpSetProp:
		return "SetProp"
	case OpRemoveProp:
		return "RemoveProp"
	case OpSetHandler:
		return "SetHandler"
	case OpRemoveHandler:
		return "RemoveHandler"
	default:
		return "Unknown"
	}
}

// RootID is the node id of the remote container. Created nodes are numbered
// from RootID+1; an Anchor of 0 means "append".
const RootID uint32 = 1

// Op is one host operation addressed by node id.
type Op struct {
	Code   OpCode
	Node   uint32
	Parent uint32 // Insert
	Anchor uint32 // Insert; 0 appends
	Tag    string // CreateElement
	Text   string // CreateText, CreateComment, SetElementText, SetText
	Key    string // prop key or event name
	Value  any    // SetProp
}

// PatchesFrame is one turn's worth of ops, or a slice of it.
type PatchesFrame struct {
	Seq uint64
	Ops []Op
}

// EncodePatches encodes a PatchesFrame payload.
func EncodePatches(pf *PatchesFrame) []byte {
	e := NewEncoder()
	e.WriteUvarint(pf.Seq)
	e.WriteUvarint(uint64(len(pf.Ops)))
	for i := range pf.Ops {
		encodeOp(e, &pf.Ops[i])
	}
	return e.Bytes()
}

// EncodePatchFrames splits ops into patches frames whose payloads fit in
// MaxPayloadSize. Every frame carries seq; the last has FlagFinal. An empty
// ops slice still yields one final frame.
func EncodePatchFrames(seq uint64, ops []Op) []*Frame {
	var frames []*Frame
	scratch := NewEncoder()
	var batch []Op
	size := 0
	// seq and count varints take at most 10 bytes each.
	const overhead = 20

	flush := func() {
		frames = append(frames, NewFrame(FramePatches, EncodePatches(&PatchesFrame{Seq: seq, Ops: batch})))
		batch = nil
		size = 0
	}
	for i := range ops {
		scratch.Reset()
		encodeOp(scratch, &ops[i])
		if len(batch) > 0 && size+scratch.Len()+overhead > MaxPayloadSize {
			flush()
		}
		batch = append(batch, ops[i])
		size += scratch.Len()
	}
	flush()
	frames[len(frames)-1].Flags |= FlagFinal
	return frames
}

func encodeOp(e *Encoder, op *Op) {
	e.PutByte(byte(op.Code))
	e.WriteUvarint(uint64(op.Node))
	switch op.Code {
	case OpCreateElement:
		e.WriteString(op.Tag)
	case OpCreateText, OpCreateComment, OpSetElementText, OpSetText:
		e.WriteString(op.Text)
	case OpInsert:
		e.WriteUvarint(uint64(op.Parent))
		e.WriteUvarint(uint64(op.Anchor))
	case OpSetProp:
		e.WriteString(op.Key)
		e.WriteValue(op.Value)
	case OpRemoveProp, OpSetHandler, OpRemoveHandler:
		e.WriteString(op.Key)
	}
}

// DecodePatches decodes a PatchesFrame payload.
func DecodePatches(data []byte) (*PatchesFrame, error) {
	d := NewDecoder(data)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	pf := &PatchesFrame{Seq: seq, Ops: make([]Op, count)}
	for i := range pf.Ops {
		if err := decodeOp(d, &pf.Ops[i]); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
	}
	return pf, nil
}

func decodeOp(d *Decoder, op *Op) error {
	code, err := d.ReadByte()
	if err != nil {
		return err
	}
	op.Code = OpCode(code)
	if op.Node, err = d.ReadUvarint32(); err != nil {
		return err
	}
	switch op.Code {
	case OpCreateElement:
		op.Tag, err = d.ReadString()
	case OpCreateText, OpCreateComment, OpSetElementText, OpSetText:
		op.Text, err = d.ReadString()
	case OpInsert:
		if op.Parent, err = d.ReadUvarint32(); err != nil {
			return err
		}
		op.Anchor, err = d.ReadUvarint32()
	case OpRemove:
	case OpSetProp:
		if op.Key, err = d.ReadString(); err != nil {
			return err
		}
		op.Value, err = d.ReadValue()
	case OpRemoveProp, OpSetHandler, OpRemoveHandler:
		op.Key, err = d.ReadString()
	default:
		return fmt.Errorf("protocol: unknown op code 0x%02x", code)
	}
	return err
}
