// Package stackup implements tolerance stackup analysis for chains of
// mating mechanical parts: worst-case interval accumulation, statistical
// root-sum-square combination, Monte Carlo simulation, and per-link
// contribution accounting. All analyzers are pure functions of their
// inputs; a chain is an immutable snapshot and results are recomputed
// rather than patched in place.
package stackup
