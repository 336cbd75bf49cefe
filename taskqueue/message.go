package taskqueue

// Conversation channels, worker subgroup leader to coordinator and back.
const (
	requestChannel = 1
	replyChannel   = 2
)

type messageKind int

const (
	// kindTaskRequest asks the coordinator for the next task.
	kindTaskRequest messageKind = iota

	// kindTask delivers a task value to a subgroup leader.
	kindTask

	// kindResult delivers a task's result to the coordinator.
	kindResult

	// kindEnd tells a subgroup no tasks remain.
	kindEnd
)

func (k messageKind) String() string {
	switch k {
	case kindTaskRequest:
		return "task-request"
	case kindTask:
		return "task"
	case kindResult:
		return "result"
	case kindEnd:
		return "end"
	}
	return "unknown"
}

// message is the protocol envelope: a kind plus an optional opaque payload
// (a task for kindTask, a result for kindResult, nil otherwise).
type message struct {
	Kind  messageKind
	Value interface{}
}

// asMessage checks a received value at the deserialization boundary.
func asMessage(value interface{}) (message, error) {
	msg, ok := value.(message)
	if !ok {
		return message{}, protocolErrorf("unexpected payload %T", value)
	}
	return msg, nil
}
