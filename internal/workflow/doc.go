// Package workflow coordinates directory scans, stability ticks, and
// extraction job dispatch.
//
// The Manager runs two independent loops: a minutes-scale scan loop that
// reconciles the registry with the filesystem, and a seconds-scale tick loop
// that re-probes tracked file sizes and promotes stable entries. Promotion
// is an atomic pending-to-processing transition in the registry, so at most
// one extraction job ever runs per file regardless of how ticks and manual
// requests interleave. Jobs run as background goroutines bounded by a
// weighted semaphore; a slow extraction never delays the next tick or scan.
package workflow
