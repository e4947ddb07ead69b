package runtime

import (
	"context"

	"github.com/valence-lang/valence/internal/continuation"
	"github.com/valence-lang/valence/internal/l1"
	"github.com/valence-lang/valence/internal/l2"
)

// Stepper bridges the fiber scheduler (component I) to the two execution
// tiers: a continuation carrying a valid installed chunk runs through
// package l2 first, falling back to the nominal package l1 interpreter
// the instant that chunk reports an off-ramp — spec §4.6's transparent
// fallback contract. It satisfies fiber.Stepper.
type Stepper struct {
	Host *Context
}

func (s *Stepper) Step(ctx context.Context, c *continuation.Continuation) (any, *continuation.Continuation, bool, error) {
	current := c
	for {
		if chunk, ok := current.Chunk().(*l2.Chunk); ok && chunk.Valid() {
			outcome, next, value, err := l2.Run(chunk, current, s.Host, chunk.EntryOffset(current.PC()))
			if err != nil {
				return nil, nil, false, err
			}
			switch outcome {
			case l2.Success:
				return value, nil, false, nil
			case l2.OffRampTaken:
				current = next
				continue
			}
		}
		value, err := l1.Run(current, s.Host)
		if err != nil {
			return nil, nil, false, err
		}
		return value, nil, false, nil
	}
}
