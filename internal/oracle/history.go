package oracle

// TrimHistory bounds the conversation passed to each oracle turn. The
// system prompt and the first user message (the room summary) always
// survive; of the rest only the most recent maxRecent messages are kept.
// Keeping the window bounded holds per-call latency and cost flat no
// matter how many reasoning turns have elapsed.
func TrimHistory(messages []Message, maxRecent int) []Message {
	if maxRecent <= 0 || len(messages) <= maxRecent {
		return messages
	}

	var head []Message
	rest := messages
	if len(rest) > 0 && rest[0].Role == "system" {
		head = append(head, rest[0])
		rest = rest[1:]
	}
	if len(rest) > 0 && rest[0].Role == "user" {
		head = append(head, rest[0])
		rest = rest[1:]
	}
	if len(rest) > maxRecent {
		rest = rest[len(rest)-maxRecent:]
	}
	// A tool result without its triggering assistant message confuses the
	// oracle; drop leading orphaned tool messages.
	for len(rest) > 0 && rest[0].Role == "tool" {
		rest = rest[1:]
	}

	out := make([]Message, 0, len(head)+len(rest))
	out = append(out, head...)
	out = append(out, rest...)
	return out
}
