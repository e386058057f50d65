// Package assembly models an assembly of mechanical parts as per-face
// geometric summaries, detects mating interfaces between parts, and
// builds the adjacency graph used to derive tolerance chains from real
// geometry. Face data is produced by an external geometry front end
// (STEP import, mesh analysis, manual entry) and is read-only here.
package assembly
