package agent

import "sync"

// Agent carries the conversational instructions for one session. The
// instructions are mutable at runtime via the update_system_prompt RPC,
// so access is guarded: a generation that starts after an update must see
// the new instructions.
type Agent struct {
	mu           sync.RWMutex
	instructions string
}

// NewAgent creates an agent with the given initial instructions.
func NewAgent(instructions string) *Agent {
	return &Agent{instructions: instructions}
}

// Instructions returns the current instructions.
func (a *Agent) Instructions() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.instructions
}

// UpdateInstructions atomically replaces the instructions.
func (a *Agent) UpdateInstructions(instructions string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.instructions = instructions
}
