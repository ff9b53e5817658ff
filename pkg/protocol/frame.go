package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// A frame is a 4 byte header followed by the payload:
//
//	type:1 flags:1 length:2 (big endian) payload:length
const (
	FrameHeaderSize = 4
	MaxPayloadSize  = 1<<16 - 1
)

// FrameType identifies what a frame's payload holds.
type FrameType uint8

const (
	FrameEvent   FrameType = 0x01 // client to server: one Event
	FramePatches FrameType = 0x02 // server to client: host operations
	FrameError   FrameType = 0x05 // server to client: ErrorMessage
)

var frameTypeNames = map[FrameType]string{
	FrameEvent:   "Event",
	FramePatches: "Patches",
	FrameError:   "Error",
}

func (ft FrameType) String() string {
	if name, ok := frameTypeNames[ft]; ok {
		return name
	}
	return fmt.Sprintf("FrameType(%#02x)", uint8(ft))
}

// FrameFlags is a bit set carried in the frame header.
type FrameFlags uint8

// FlagFinal marks the last patches frame produced by one loop turn.
const FlagFinal FrameFlags = 0x04

func (ff FrameFlags) Has(flag FrameFlags) bool { return ff&flag != 0 }

var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode returns header and payload as one message. Payloads are assumed
// to fit MaxPayloadSize; WriteFrame checks it.
func (f *Frame) Encode() []byte {
	buf := make([]byte, 0, FrameHeaderSize+len(f.Payload))
	buf = append(buf, byte(f.Type), byte(f.Flags))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(f.Payload)))
	return append(buf, f.Payload...)
}

// parseHeader validates the header and returns the payload length.
func parseHeader(h []byte) (FrameType, FrameFlags, int, error) {
	ft := FrameType(h[0])
	if _, ok := frameTypeNames[ft]; !ok {
		return 0, 0, 0, fmt.Errorf("%w %#02x", ErrInvalidFrameType, h[0])
	}
	return ft, FrameFlags(h[1]), int(binary.BigEndian.Uint16(h[2:4])), nil
}

// DecodeFrame parses one complete frame. Bytes after the payload are
// ignored. The payload is copied out of data.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	ft, flags, n, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[FrameHeaderSize:]
	if len(body) < n {
		return nil, io.ErrUnexpectedEOF
	}
	return &Frame{Type: ft, Flags: flags, Payload: append([]byte(nil), body[:n]...)}, nil
}

// ReadFrame reads the next frame from a stream.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	ft, flags, n, err := parseHeader(header[:])
	if err != nil {
		return nil, err
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// WriteFrame writes f to a stream in one Write call.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}
