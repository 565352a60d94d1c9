// Package player implements the per-widget playback state machine.
//
// A Controller owns exactly one Output and moves between three states:
//
//	Idle     no asset bound
//	Ready    asset bound, output stopped at position zero
//	Playing  asset bound, output producing sound
//
// Stopping always rewinds to the start; there is no pause. Completion and
// error callbacks from the Output arrive on the audio goroutine and are
// serialised with user events by the controller's mutex.
package player
