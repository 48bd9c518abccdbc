package webhook

// Message types sent on subscription channels besides plain events.
const (
	MessageConnected = "connected"
	MessageHeartbeat = "heartbeat"
)

// Connected is the first message on every subscription.
type Connected struct {
	Type      string    `json:"type"`
	Webhooks  []Event   `json:"webhooks"`
	Timestamp Timestamp `json:"timestamp"`
}

// Heartbeat is the periodic liveness message.
type Heartbeat struct {
	Type      string    `json:"type"`
	Timestamp Timestamp `json:"timestamp"`
}

// Frame wraps a JSON document in text/event-stream framing.
func Frame(data []byte) []byte {
	out := make([]byte, 0, len(data)+8)
	out = append(out, "data: "...)
	out = append(out, data...)
	return append(out, '\n', '\n')
}

// Unframe strips the text/event-stream framing added by Frame.
func Unframe(frame []byte) []byte {
	const prefix = "data: "
	if len(frame) >= len(prefix) && string(frame[:len(prefix)]) == prefix {
		frame = frame[len(prefix):]
	}
	for len(frame) > 0 && frame[len(frame)-1] == '\n' {
		frame = frame[:len(frame)-1]
	}
	return frame
}
