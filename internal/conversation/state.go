package conversation

// New seeds a state with a single human message.
func New(utterance string) State {
	return State{Messages: []Message{{Role: RoleHuman, Content: utterance}}}
}

func (s State) Clone() State {
	msgs := make([]Message, len(s.Messages))
	copy(msgs, s.Messages)
	return State{Messages: msgs, PendingApproval: s.PendingApproval}
}

func (s State) Append(role Role, content string) State {
	next := s.Clone()
	next.Messages = append(next.Messages, Message{Role: role, Content: content})
	return next
}

func (s State) WithPendingApproval(pending bool) State {
	next := s.Clone()
	next.PendingApproval = pending
	return next
}

// SupersedeLastAssistant replaces the content of the most recent assistant
// message, or appends one when the transcript has none. It is the only
// mutation allowed on an existing entry.
func (s State) SupersedeLastAssistant(content string) State {
	next := s.Clone()
	if i := lastIndex(next.Messages, RoleAssistant); i >= 0 {
		next.Messages[i] = Message{Role: RoleAssistant, Content: content}
		return next
	}
	next.Messages = append(next.Messages, Message{Role: RoleAssistant, Content: content})
	return next
}

func (s State) LastHuman() (Message, bool) {
	return s.last(RoleHuman)
}

func (s State) LastAssistant() (Message, bool) {
	return s.last(RoleAssistant)
}

func (s State) Empty() bool {
	return len(s.Messages) == 0
}

func (s State) last(role Role) (Message, bool) {
	i := lastIndex(s.Messages, role)
	if i < 0 {
		return Message{}, false
	}
	return s.Messages[i], true
}

func lastIndex(msgs []Message, role Role) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == role {
			return i
		}
	}
	return -1
}
