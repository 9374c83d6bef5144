package realtime

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Engine.IO v4 packet types, sent as the first byte of each frame.
const (
	engineOpen    byte = '0'
	engineClose   byte = '1'
	enginePing    byte = '2'
	enginePong    byte = '3'
	engineMessage byte = '4'
	engineUpgrade byte = '5'
	engineNoop    byte = '6'
)

// Socket.IO v5 packet types, carried inside an engine message.
const (
	socketConnect      byte = '0'
	socketDisconnect   byte = '1'
	socketEvent        byte = '2'
	socketAck          byte = '3'
	socketConnectError byte = '4'
	socketBinaryEvent  byte = '5'
	socketBinaryAck    byte = '6'
)

const defaultNamespace = "/"

var errEmptyFrame = errors.New("empty frame")

// handshake is the payload of the engine open packet.
type handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"` // ms
	PingTimeout  int      `json:"pingTimeout"`  // ms
	MaxPayload   int      `json:"maxPayload"`
}

// readTimeout is how long the server may stay silent before the
// connection is considered dead.
func (h handshake) readTimeout() time.Duration {
	d := time.Duration(h.PingInterval+h.PingTimeout) * time.Millisecond
	if d <= 0 {
		d = 45 * time.Second
	}
	return d
}

type socketPacket struct {
	Type      byte
	Namespace string
	AckID     int // -1 when absent
	Data      json.RawMessage
}

func decodeEngine(frame []byte) (byte, []byte, error) {
	if len(frame) == 0 {
		return 0, nil, errEmptyFrame
	}
	switch t := frame[0]; t {
	case engineOpen, engineClose, enginePing, enginePong, engineMessage, engineUpgrade, engineNoop:
		return t, frame[1:], nil
	default:
		return 0, nil, fmt.Errorf("unknown engine packet type %q", t)
	}
}

func decodeHandshake(payload []byte) (handshake, error) {
	var h handshake
	if err := json.Unmarshal(payload, &h); err != nil {
		return handshake{}, fmt.Errorf("invalid open packet: %w", err)
	}
	return h, nil
}

// decodeSocket parses <type>[<attachments>-][<namespace>,][<id>][<data>].
func decodeSocket(payload []byte) (socketPacket, error) {
	if len(payload) == 0 {
		return socketPacket{}, errEmptyFrame
	}
	p := socketPacket{Type: payload[0], Namespace: defaultNamespace, AckID: -1}
	if p.Type < socketConnect || p.Type > socketBinaryAck {
		return socketPacket{}, fmt.Errorf("unknown socket packet type %q", p.Type)
	}
	rest := payload[1:]

	if p.Type == socketBinaryEvent || p.Type == socketBinaryAck {
		// Attachments are never sent on this channel.
		return socketPacket{}, errors.New("binary packets are not supported")
	}

	if len(rest) > 0 && rest[0] == '/' {
		end := indexByte(rest, ',')
		if end < 0 {
			p.Namespace = string(rest)
			return p, nil
		}
		p.Namespace = string(rest[:end])
		rest = rest[end+1:]
	}

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		id, err := strconv.Atoi(string(rest[:digits]))
		if err != nil {
			return socketPacket{}, fmt.Errorf("invalid ack id: %w", err)
		}
		p.AckID = id
		rest = rest[digits:]
	}

	if len(rest) > 0 {
		p.Data = json.RawMessage(rest)
	}
	return p, nil
}

func encodeSocket(p socketPacket) []byte {
	out := []byte{engineMessage, p.Type}
	if p.Namespace != "" && p.Namespace != defaultNamespace {
		out = append(out, p.Namespace...)
		out = append(out, ',')
	}
	if p.AckID >= 0 {
		out = strconv.AppendInt(out, int64(p.AckID), 10)
	}
	return append(out, p.Data...)
}

// decodeEvent splits an event payload ["name", arg, ...] into the event
// name and its first argument.
func decodeEvent(data json.RawMessage) (string, json.RawMessage, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return "", nil, fmt.Errorf("invalid event payload: %w", err)
	}
	if len(parts) == 0 {
		return "", nil, errors.New("event payload has no name")
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return "", nil, fmt.Errorf("invalid event name: %w", err)
	}
	if len(parts) < 2 {
		return name, nil, nil
	}
	return name, parts[1], nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
