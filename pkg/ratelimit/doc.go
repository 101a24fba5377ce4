// Package ratelimit enforces the per-hour action cap.
//
// The tracker keeps one timestamp per consumed action over a rolling window,
// so the guarantee is the strong one: in any sliding span of the window
// length, the number of allowed actions never exceeds the cap. A denied
// caller asks NextAllowed for the instant the oldest action ages out and
// sleeps until then.
package ratelimit
