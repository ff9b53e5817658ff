package protocol

import (
	"fmt"
	"slices"
)

// Event is sent by the client when the user interacts with a node. Node is
// the wire id the server assigned in a create op; Type is the handler's
// event name without the "on" prefix.
type Event struct {
	Seq   uint64
	Node  uint32
	Type  string
	Value string
	Data  map[string]string
}

// EncodeEvent lays out seq node type value followed by the Data pairs in
// key order.
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	e.WriteUvarint(ev.Seq)
	e.WriteUvarint(uint64(ev.Node))
	e.WriteString(ev.Type)
	e.WriteString(ev.Value)
	e.WriteUvarint(uint64(len(ev.Data)))
	keys := make([]string, 0, len(ev.Data))
	for k := range ev.Data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		e.WriteString(k)
		e.WriteString(ev.Data[k])
	}
	return e.Bytes()
}

func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	var ev Event
	var err error
	if ev.Seq, err = d.ReadUvarint(); err != nil {
		return nil, fmt.Errorf("protocol: event seq: %w", err)
	}
	if ev.Node, err = d.ReadUvarint32(); err != nil {
		return nil, fmt.Errorf("protocol: event node: %w", err)
	}
	if ev.Type, err = d.ReadString(); err != nil {
		return nil, fmt.Errorf("protocol: event type: %w", err)
	}
	if ev.Value, err = d.ReadString(); err != nil {
		return nil, fmt.Errorf("protocol: event value: %w", err)
	}
	n, err := d.ReadCollectionCount()
	if err != nil {
		return nil, fmt.Errorf("protocol: event data: %w", err)
	}
	for i := 0; i < n; i++ {
		k, err := d.ReadString()
		if err != nil {
			return nil, fmt.Errorf("protocol: event data key: %w", err)
		}
		v, err := d.ReadString()
		if err != nil {
			return nil, fmt.Errorf("protocol: event data %q: %w", k, err)
		}
		if ev.Data == nil {
			ev.Data = make(map[string]string, n)
		}
		ev.Data[k] = v
	}
	return &ev, nil
}
