package aprs

import (
	"fmt"

	"github.com/dl7ad/pecantrack/internal/ax25"
)

// MaxMessageLen is the APRS message text limit (spec §4.4).
const MaxMessageLen = 67

// EncodeMessage builds an APRS message PDU: ":CALLSIGN :text{NNN}". If
// msgNum is empty no ACK is requested and the "{NNN}" suffix is omitted.
func EncodeMessage(to ax25.Address, text string, msgNum string) ([]byte, error) {
	if len(text) == 0 || len(text) > MaxMessageLen {
		return nil, ax25.ErrPacketTooLong
	}
	addressee := formatAddressee(to)
	if msgNum == "" {
		return []byte(fmt.Sprintf(":%s:%s", addressee, text)), nil
	}
	return []byte(fmt.Sprintf(":%s:%s{%s}", addressee, text, msgNum)), nil
}

// EncodeAck builds ":CALLSIGN :ackNNN".
func EncodeAck(to ax25.Address, msgNum string) []byte {
	addressee := formatAddressee(to)
	return []byte(fmt.Sprintf(":%s:ack%s", addressee, msgNum))
}

// EncodeRej builds ":CALLSIGN :rejNNN".
func EncodeRej(to ax25.Address, msgNum string) []byte {
	addressee := formatAddressee(to)
	return []byte(fmt.Sprintf(":%s:rej%s", addressee, msgNum))
}

// MessageEvent is a decoded incoming message PDU.
type MessageEvent struct {
	Addressee string
	Text      string
	MsgNum    string // empty if no ACK requested
	IsAck     bool
	IsRej     bool
}

func decodeMessage(info []byte) (MessageEvent, error) {
	s := string(info)
	if len(s) == 0 || s[0] != ':' {
		return MessageEvent{}, fmt.Errorf("aprs: not a message PDU")
	}
	rest := s[1:]
	colon := indexByte(rest, ':')
	if colon < 0 || colon != 9 {
		return MessageEvent{}, fmt.Errorf("aprs: malformed message addressee field")
	}
	addressee := trimSpaces(rest[:colon])
	body := rest[colon+1:]

	ev := MessageEvent{Addressee: addressee}

	if len(body) >= 6 && body[:3] == "ack" {
		ev.IsAck = true
		ev.MsgNum = body[3:]
		return ev, nil
	}
	if len(body) >= 6 && body[:3] == "rej" {
		ev.IsRej = true
		ev.MsgNum = body[3:]
		return ev, nil
	}

	if i := lastIndexByte(body, '{'); i >= 0 && body[len(body)-1] == '}' {
		ev.Text = body[:i]
		ev.MsgNum = body[i+1 : len(body)-1]
	} else {
		ev.Text = body
	}
	return ev, nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func trimSpaces(s string) string {
	start, end := 0, len(s)
	for start < end && s[start] == ' ' {
		start++
	}
	for end > start && s[end-1] == ' ' {
		end--
	}
	return s[start:end]
}
