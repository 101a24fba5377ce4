// Package collector turns a lazily-rendered, windowed list into a complete
// deduplicated snapshot.
//
// The source gives no end-of-list signal and can pause rendering mid-batch,
// so the collector terminates on a stall streak plus a confirmation reveal
// after a longer wait, stopping early when the page header reports a total.
// If the hard round ceiling is hit first, the partial snapshot is returned
// alongside a CollectionIncomplete error so the caller can decide whether
// partial data is usable.
package collector
