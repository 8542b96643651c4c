// Package engine implements the activeset activation engine.
//
// An Engine holds an ordered list of values, each wrapped in a Content that
// carries its position and activation facts. Contents are activated and
// deactivated by position, by value or by predicate, and the list itself can
// be reordered with insert, remove, swap and move. Tabs, carousels,
// accordions and sortable lists are all views over this one model.
//
// ARCHITECTURE:
//
// Identity-Based Active Tracking:
// Active membership is a flag on each Content plus one slice of the active
// contents in activation order. Positions are never stored, so structural
// mutations do not repair the active set. After every change repair()
// recomputes each content's index and neighbour facts in one pass.
//
// Operation Flow:
// 1. Public method takes the engine lock
// 2. Cooldown check (user-driven calls only)
// 3. State mutated, repair() recomputes derived facts
// 4. Autoplay notified, cooldown armed
// 5. Event stamped with the next Seq and queued
// 6. Lock released, queue drained to subscribers
//
// Subscribers run without the lock and may call back into the engine. Events
// they cause are appended to the queue and delivered by the drain already in
// progress, so every subscriber sees events in Seq order.
//
// Timers:
// Cooldown and autoplay read time from an injected Clock. Tests use a
// virtual clock and advance it explicitly. An autoplay callback re-validates
// the engine state under the lock before advancing, since any operation may
// run between scheduling and firing.
//
// ERRORS:
//
// Index, lookup and limit errors reject an operation before anything
// changes. Cooldown and autoplay duration errors are returned after the
// change was applied; the engine stays valid but unarmed and no event is
// emitted. Every other unusual request (activating an active content,
// acting during cooldown, advancing with nothing active) is a silent no-op.
package engine
