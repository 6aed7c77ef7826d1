// Package state keeps per-user dialogue sessions: the current step, the draft
// collected so far and the handler bound to each step. Sessions live in memory
// and are dropped by the janitor once they sit idle longer than the configured TTL.
package state
