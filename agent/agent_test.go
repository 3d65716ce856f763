package agent

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentUpdateInstructions(t *testing.T) {
	a := NewAgent("You are a helpful assistant.")
	assert.Equal(t, "You are a helpful assistant.", a.Instructions())

	a.UpdateInstructions("Answer only in French.")
	assert.Equal(t, "Answer only in French.", a.Instructions())
}

func TestAgentConcurrentAccess(t *testing.T) {
	a := NewAgent("initial")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.UpdateInstructions("updated")
		}()
		go func() {
			defer wg.Done()
			_ = a.Instructions()
		}()
	}
	wg.Wait()

	assert.Equal(t, "updated", a.Instructions())
}
