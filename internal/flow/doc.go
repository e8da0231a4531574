// Package flow is the numeric core of opticflow: dense optical flow between
// two single-channel intensity frames.
//
// Responsibilities: spatial/temporal derivatives (3×3 Sobel on the first
// frame, pixel-wise temporal difference), windowed structure-tensor sums,
// the per-pixel Lucas-Kanade 2×2 solve and the Jacobi-relaxed Horn-Schunck
// iteration.
// Key types: Frame, Grid, Gradients, StructureTensor, Field.
//
// Border policy: every convolution-like pass (derivatives, window sums,
// neighbour averages) uses reflect-101 indexing, i.e. the edge pixel is the
// mirror axis and is not repeated (gfedcb|abcdefgh|gfedcba). See Reflect101.
//
// Dependency rule: no I/O, no logging, no package-level mutable state. Every
// exported operation is a pure function of its inputs and is safe to call
// from multiple goroutines.
package flow
