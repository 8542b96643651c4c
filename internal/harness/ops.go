package harness

import (
	"fmt"
	"slices"
	"time"

	"github.com/roach88/activeset/internal/engine"
	"github.com/roach88/activeset/internal/ir"
	"github.com/roach88/activeset/internal/testutil"
)

type opArg int

const (
	argIndex opArg = iota
	argTo
	argValue
	argOther
	argMatch
	argPlacement
	argDuration
)

// opSpec describes one step op: the arguments it requires and how to run
// it. run returns the values removed by removal ops, nil otherwise.
type opSpec struct {
	args []opArg
	run  func(r *runner, s *Step) ([]string, error)
}

// runner executes steps against one engine under a virtual clock.
type runner struct {
	engine *engine.Engine[string]
	clock  *testutil.VirtualClock
}

func (r *runner) options(s *Step) engine.ActionOptions {
	opts := engine.ActionOptions{IsUserInteraction: s.User}
	if s.Cooldown != "" {
		// Parsed in validateStep.
		opts.Cooldown, _ = time.ParseDuration(s.Cooldown)
	}
	return opts
}

func (r *runner) content(s *Step) (*engine.Content[string], error) {
	return r.engine.ContentAt(*s.Index)
}

func norm(v string) string { return ir.NormalizeString(v) }

func none(err error) ([]string, error) { return nil, err }

// contentOp adapts a Content method to an op.
func contentOp(fn func(c *engine.Content[string], r *runner, s *Step) error, args ...opArg) opSpec {
	return opSpec{
		args: append([]opArg{argIndex}, args...),
		run: func(r *runner, s *Step) ([]string, error) {
			c, err := r.content(s)
			if err != nil {
				return nil, err
			}
			return nil, fn(c, r, s)
		},
	}
}

var ops = map[string]opSpec{
	// Activation
	"activate": {[]opArg{argIndex}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.Activate(*s.Index, r.options(s)))
	}},
	"activate_by_value": {[]opArg{argValue}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.ActivateByValue(norm(s.Value), r.options(s)))
	}},
	"activate_by_predicate": {[]opArg{argMatch}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.ActivateByPredicate(s.Match.Predicate(), r.options(s)))
	}},
	"activate_next": {nil, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.ActivateNext(r.options(s)))
	}},
	"activate_previous": {nil, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.ActivatePrevious(r.options(s)))
	}},
	"activate_first": {nil, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.ActivateFirst(r.options(s)))
	}},
	"activate_last": {nil, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.ActivateLast(r.options(s)))
	}},
	"deactivate": {[]opArg{argIndex}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.Deactivate(*s.Index, r.options(s)))
	}},
	"deactivate_by_value": {[]opArg{argValue}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.DeactivateByValue(norm(s.Value), r.options(s)))
	}},
	"deactivate_by_predicate": {[]opArg{argMatch}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.DeactivateByPredicate(s.Match.Predicate(), r.options(s)))
	}},
	"toggle": {[]opArg{argIndex}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.Toggle(*s.Index, r.options(s)))
	}},
	"toggle_by_value": {[]opArg{argValue}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.ToggleByValue(norm(s.Value), r.options(s)))
	}},

	// Insertion
	"insert": {[]opArg{argValue, argIndex}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.Insert(norm(s.Value), *s.Index))
	}},
	"push": {[]opArg{argValue}, func(r *runner, s *Step) ([]string, error) {
		r.engine.Push(norm(s.Value))
		return nil, nil
	}},
	"unshift": {[]opArg{argValue}, func(r *runner, s *Step) ([]string, error) {
		r.engine.Unshift(norm(s.Value))
		return nil, nil
	}},
	"insert_by_predicate": {[]opArg{argValue, argMatch, argPlacement}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.InsertByPredicate(norm(s.Value), s.Match.Predicate(), engine.Placement(s.Placement)))
	}},

	// Removal
	"remove": {[]opArg{argIndex}, func(r *runner, s *Step) ([]string, error) {
		v, err := r.engine.Remove(*s.Index)
		if err != nil {
			return nil, err
		}
		return []string{v}, nil
	}},
	"remove_by_value": {[]opArg{argValue}, func(r *runner, s *Step) ([]string, error) {
		v := norm(s.Value)
		if err := r.engine.RemoveByValue(v); err != nil {
			return nil, err
		}
		return []string{v}, nil
	}},
	"pop": {nil, func(r *runner, s *Step) ([]string, error) {
		v, ok := r.engine.Pop()
		if !ok {
			return []string{}, nil
		}
		return []string{v}, nil
	}},
	"shift": {nil, func(r *runner, s *Step) ([]string, error) {
		v, ok := r.engine.Shift()
		if !ok {
			return []string{}, nil
		}
		return []string{v}, nil
	}},
	"remove_by_predicate": {[]opArg{argMatch}, func(r *runner, s *Step) ([]string, error) {
		removed := r.engine.RemoveByPredicate(s.Match.Predicate())
		if removed == nil {
			removed = []string{}
		}
		return removed, nil
	}},

	// Reordering
	"swap": {[]opArg{argIndex, argTo}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.Swap(*s.Index, *s.To))
	}},
	"swap_by_value": {[]opArg{argValue, argOther}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.SwapByValue(norm(s.Value), norm(s.Other)))
	}},
	"move": {[]opArg{argIndex, argTo}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.Move(*s.Index, *s.To))
	}},
	"move_by_value": {[]opArg{argValue, argTo}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.MoveByValue(norm(s.Value), *s.To))
	}},
	"move_by_predicate": {[]opArg{argValue, argMatch, argPlacement}, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.MoveByPredicate(norm(s.Value), s.Match.Predicate(), engine.Placement(s.Placement)))
	}},

	// Autoplay and time
	"play": {nil, func(r *runner, s *Step) ([]string, error) {
		return none(r.engine.Play())
	}},
	"pause": {nil, func(r *runner, s *Step) ([]string, error) {
		r.engine.Pause()
		return nil, nil
	}},
	"stop": {nil, func(r *runner, s *Step) ([]string, error) {
		r.engine.Stop()
		return nil, nil
	}},
	"advance": {[]opArg{argDuration}, func(r *runner, s *Step) ([]string, error) {
		d, err := time.ParseDuration(s.Duration)
		if err != nil {
			return nil, fmt.Errorf("advance: %w", err)
		}
		r.clock.Advance(d)
		return nil, nil
	}},

	// Content wrapper
	"content_activate": contentOp(func(c *engine.Content[string], r *runner, s *Step) error {
		return c.Activate(r.options(s))
	}),
	"content_deactivate": contentOp(func(c *engine.Content[string], r *runner, s *Step) error {
		return c.Deactivate(r.options(s))
	}),
	"content_toggle": contentOp(func(c *engine.Content[string], r *runner, s *Step) error {
		return c.Toggle(r.options(s))
	}),
	"content_remove": contentOp(func(c *engine.Content[string], _ *runner, _ *Step) error {
		return c.Remove()
	}),
	"content_swap_with": contentOp(func(c *engine.Content[string], r *runner, s *Step) error {
		other, err := r.engine.ContentAt(*s.To)
		if err != nil {
			return err
		}
		return c.SwapWith(other)
	}, argTo),
	"content_swap_with_next": contentOp(func(c *engine.Content[string], _ *runner, _ *Step) error {
		return c.SwapWithNext()
	}),
	"content_swap_with_previous": contentOp(func(c *engine.Content[string], _ *runner, _ *Step) error {
		return c.SwapWithPrevious()
	}),
	"content_move_to_index": contentOp(func(c *engine.Content[string], _ *runner, s *Step) error {
		return c.MoveToIndex(*s.To)
	}, argTo),
	"content_move_to_first": contentOp(func(c *engine.Content[string], _ *runner, _ *Step) error {
		return c.MoveToFirst()
	}),
	"content_move_to_last": contentOp(func(c *engine.Content[string], _ *runner, _ *Step) error {
		return c.MoveToLast()
	}),
	"content_move_forward": contentOp(func(c *engine.Content[string], _ *runner, _ *Step) error {
		return c.MoveForward()
	}),
	"content_move_backward": contentOp(func(c *engine.Content[string], _ *runner, _ *Step) error {
		return c.MoveBackward()
	}),
}

// Ops returns the names of all step ops.
func Ops() []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
