// Package llmtest provides a scripted llm.Generator for tests.
package llmtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnavailable is what a failing Fake returns.
var ErrUnavailable = errors.New("generation backend unavailable")

// Fake answers every prompt with Respond, or fails when Fail is set.
type Fake struct {
	// Respond builds the answer for a prompt. Nil echoes a fixed reply.
	Respond func(prompt string) (string, error)
	// Fail makes every call return ErrUnavailable.
	Fail bool

	mu      sync.Mutex
	prompts []string
}

func (f *Fake) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	n := len(f.prompts)
	f.mu.Unlock()

	if f.Fail {
		return "", ErrUnavailable
	}
	if f.Respond != nil {
		return f.Respond(prompt)
	}
	return fmt.Sprintf("generated narrative #%d", n), nil
}

// Prompts returns every prompt received so far.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Calls returns the number of Generate calls.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
