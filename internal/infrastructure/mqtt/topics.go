package mqtt

import "strings"

// Topics builds transport topics under a common prefix.
//
//	topics := mqtt.Topics{Prefix: "grayhub"}
//	topics.Queue("dev-1-dc-commands") // "grayhub/q/dev-1-dc-commands"
type Topics struct {
	Prefix string
}

// Queue returns the topic carrying the named queue.
func (t Topics) Queue(name string) string {
	return t.join("q", name)
}

// Status returns the retained connection status topic for a client.
func (t Topics) Status(clientID string) string {
	return t.join("status", clientID)
}

func (t Topics) join(kind, name string) string {
	prefix := strings.Trim(t.Prefix, "/")
	if prefix == "" {
		return kind + "/" + name
	}
	return prefix + "/" + kind + "/" + name
}

// validQueueName reports whether name maps onto a single topic level.
func validQueueName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "/+#")
}
