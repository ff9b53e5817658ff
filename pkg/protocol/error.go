package protocol

import "fmt"

// ErrorCode classifies an ErrorMessage.
type ErrorCode uint16

const (
	ErrUnknown         ErrorCode = 0x0000
	ErrInvalidFrame    ErrorCode = 0x0001 // undecodable frame or wrong frame type
	ErrInvalidEvent    ErrorCode = 0x0002 // undecodable event payload
	ErrHandlerNotFound ErrorCode = 0x0003 // unknown node or no handler for the event
	ErrHandlerPanic    ErrorCode = 0x0004 // a handler or render panicked
	ErrServerError     ErrorCode = 0x0100
)

var errorCodeNames = map[ErrorCode]string{
	ErrInvalidFrame:    "InvalidFrame",
	ErrInvalidEvent:    "InvalidEvent",
	ErrHandlerNotFound: "HandlerNotFound",
	ErrHandlerPanic:    "HandlerPanic",
	ErrServerError:     "ServerError",
}

func (ec ErrorCode) String() string {
	if name, ok := errorCodeNames[ec]; ok {
		return name
	}
	return "Unknown"
}

// ErrorMessage is the payload of a FrameError. A fatal error is followed
// by the server closing the connection.
type ErrorMessage struct {
	Code    ErrorCode
	Message string
	Fatal   bool
}

func NewError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message}
}

func NewFatalError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message, Fatal: true}
}

func (em *ErrorMessage) Error() string {
	return fmt.Sprintf("protocol error %s: %s", em.Code, em.Message)
}

// EncodeErrorMessage lays out code:uint16 message:string fatal:bool.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.WriteUint16(uint16(em.Code))
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
	return e.Bytes()
}

func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	code, err := d.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("protocol: error code: %w", err)
	}
	em := ErrorMessage{Code: ErrorCode(code)}
	if em.Message, err = d.ReadString(); err != nil {
		return nil, fmt.Errorf("protocol: error message: %w", err)
	}
	if em.Fatal, err = d.ReadBool(); err != nil {
		return nil, fmt.Errorf("protocol: error fatal flag: %w", err)
	}
	return &em, nil
}
