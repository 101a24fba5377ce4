// Package reconcile computes the set difference that drives the run: accounts
// being followed that do not follow back and are not whitelisted. Output order
// follows the following snapshot so reruns over the same inputs produce the
// same queue.
package reconcile
