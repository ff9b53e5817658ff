package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPatchesRoundTrip(t *testing.T) {
	pf := &PatchesFrame{
		Seq: 7,
		Ops: []Op{
			{Code: OpCreateElement, Node: 2, Tag: "ul"},
			{Code: OpCreateText, Node: 3, Text: "hi"},
			{Code: OpInsert, Node: 3, Parent: 2},
			{Code: OpInsert, Node: 2, Parent: RootID, Anchor: 9},
			{Code: OpSetProp, Node: 2, Key: "count", Value: int64(-3)},
			{Code: OpSetProp, Node: 2, Key: "ratio", Value: 0.5},
			{Code: OpSetProp, Node: 2, Key: "open", Value: true},
			{Code: OpSetProp, Node: 2, Key: "class", Value: "todo"},
			{Code: OpRemoveProp, Node: 2, Key: "class"},
			{Code: OpSetHandler, Node: 2, Key: "click"},
			{Code: OpRemoveHandler, Node: 2, Key: "click"},
			{Code: OpSetText, Node: 3, Text: "bye"},
			{Code: OpRemove, Node: 3},
		},
	}

	got, err := DecodePatches(EncodePatches(pf))
	if err != nil {
		t.Fatalf("DecodePatches: %v", err)
	}
	if diff := cmp.Diff(pf, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteValueWidensNumbers(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{3, int64(3)},
		{uint8(200), int64(200)},
		{float32(1.5), 1.5},
		{nil, nil},
		{struct{ A int }{1}, "{1}"},
	}
	for _, tt := range tests {
		e := NewEncoder()
		e.WriteValue(tt.in)
		got, err := NewDecoder(e.Bytes()).ReadValue()
		if err != nil {
			t.Fatalf("ReadValue(%v): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("value %v: got %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestDecodePatchesRejectsUnknownOp(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(1)
	e.WriteUvarint(1)
	e.PutByte(0x7F)
	e.WriteUvarint(2)
	if _, err := DecodePatches(e.Bytes()); err == nil {
		t.Error("expected error for unknown op code")
	}
}

func TestEncodePatchFramesSplits(t *testing.T) {
	big := strings.Repeat("x", 30000)
	ops := []Op{
		{Code: OpCreateText, Node: 2, Text: big},
		{Code: OpCreateText, Node: 3, Text: big},
		{Code: OpCreateText, Node: 4, Text: big},
	}
	frames := EncodePatchFrames(5, ops)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	var all []Op
	for i, f := range frames {
		if len(f.Payload) > MaxPayloadSize {
			t.Errorf("frame %d payload %d exceeds limit", i, len(f.Payload))
		}
		if f.Flags.Has(FlagFinal) != (i == len(frames)-1) {
			t.Errorf("frame %d: unexpected final flag", i)
		}
		pf, err := DecodePatches(f.Payload)
		if err != nil {
			t.Fatal(err)
		}
		if pf.Seq != 5 {
			t.Errorf("frame %d: seq %d", i, pf.Seq)
		}
		all = append(all, pf.Ops...)
	}
	if diff := cmp.Diff(ops, all); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}

	empty := EncodePatchFrames(6, nil)
	if len(empty) != 1 || !empty[0].Flags.Has(FlagFinal) {
		t.Error("empty turn should produce one final frame")
	}
}

func TestFrameReadWrite(t *testing.T) {
	var buf bytes.Buffer
	f := NewFrame(FrameEvent, EncodeEvent(&Event{Seq: 1, Node: 4, Type: "click"}))
	if err := WriteFrame(&buf, f); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != FrameEvent || !bytes.Equal(got.Payload, f.Payload) {
		t.Errorf("unexpected frame %+v", got)
	}

	if _, err := ReadFrame(bytes.NewReader([]byte{0x02, 0, 0})); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("short header: got %v", err)
	}
	if _, err := DecodeFrame([]byte{0x09, 0, 0, 0}); !errors.Is(err, ErrInvalidFrameType) {
		t.Errorf("bad type: got %v", err)
	}
	if err := WriteFrame(&buf, NewFrame(FramePatches, make([]byte, MaxPayloadSize+1))); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("oversized: got %v", err)
	}
}

func TestEventRoundTrip(t *testing.T) {
	ev := &Event{Seq: 3, Node: 12, Type: "input", Value: "abc", Data: map[string]string{"key": "Enter", "alt": "1"}}
	got, err := DecodeEvent(EncodeEvent(ev))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ev, got); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
	if _, err := DecodeEvent([]byte{0x01}); err == nil {
		t.Error("truncated event should fail")
	}
}

func TestErrorMessageRoundTrip(t *testing.T) {
	em := NewFatalError(ErrHandlerNotFound, "no handler for 9/click")
	got, err := DecodeErrorMessage(EncodeErrorMessage(em))
	if err != nil {
		t.Fatal(err)
	}
	if *got != *em {
		t.Errorf("got %+v, want %+v", got, em)
	}
	if !strings.Contains(em.Error(), "HandlerNotFound") {
		t.Errorf("unexpected Error() %q", em.Error())
	}
}

func TestDecoderLimits(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(MaxCollectionCount + 1)
	if _, err := NewDecoder(e.Bytes()).ReadCollectionCount(); !errors.Is(err, ErrCollectionTooLarge) {
		t.Errorf("got %v", err)
	}
	over := bytes.Repeat([]byte{0xFF}, 11)
	if _, err := NewDecoder(over).ReadUvarint(); !errors.Is(err, ErrVarintOverflow) {
		t.Errorf("got %v", err)
	}
	e.Reset()
	e.WriteUvarint(1 << 40)
	if _, err := NewDecoder(e.Bytes()).ReadUvarint32(); !errors.Is(err, ErrVarintOverflow) {
		t.Errorf("got %v", err)
	}
}

var _ io.ByteReader = (*Decoder)(nil)

func TestEncoderPutByte(t *testing.T) {
	e := NewEncoder()
	e.PutByte(0x00)
	e.PutByte(0xFF)
	if !bytes.Equal(e.Bytes(), []byte{0x00, 0xFF}) {
		t.Fatalf("bytes = %x", e.Bytes())
	}
	d := NewDecoder(e.Bytes())
	for _, want := range []byte{0x00, 0xFF} {
		got, err := d.ReadByte()
		if err != nil || got != want {
			t.Fatalf("ReadByte = %#x, %v; want %#x", got, err, want)
		}
	}
	if _, err := d.ReadByte(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("read past end: got %v", err)
	}
}
