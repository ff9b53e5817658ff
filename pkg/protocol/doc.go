// Package protocol implements the binary wire protocol that carries host
// operations from a server-side runtime to a remote tree, and events back.
//
// # Wire Format
//
// All messages are framed with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameEvent (0x01): client → server events
//   - FramePatches (0x02): server → client host operations
//   - FrameError (0x05): error message
//
// # Encoding
//
//   - Varint: node ids, counts and sequence numbers
//   - ZigZag: signed integers in prop values
//   - Length-prefixed: strings
//
// # Patches
//
// A patches payload is a sequence number, an op count, and the ops. Each op
// starts with its opcode followed by the node id:
//
//	[Seq: varint][Count: varint]{[Op: byte][Node: varint][operands...]}
//
// A turn whose ops do not fit in one frame is split across several patches
// frames sharing the sequence number; only the last carries FlagFinal.
package protocol
