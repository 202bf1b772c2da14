// Package susceptibility computes the static Lindhard susceptibility of a
// band structure sampled on a regular reciprocal-space mesh.
//
// # Formula
//
// For every wavevector q of the mesh,
//
//	chi(q) = 1/(2·nx·ny·nz) · Σ_k Σ_α Σ_β (f(e_β(k−q)) − f(e_α(k))) / (e_β(k−q) − e_α(k) + iγ)
//
// where f is the Fermi occupation [Occupation], γ a small positive
// broadening and k−q is taken modulo the mesh (periodic wrap). Every pair of
// bands (α, β) is visited once, so the inner sum has nbands² terms.
//
// # Concurrency
//
// Each q is an independent task writing its own output voxel. [Compute]
// runs the tasks on an errgroup bounded by [Params.Workers] and normalizes
// once all of them have finished. Cancelling the context stops outstanding
// tasks and Compute returns the context error.
//
// The input mesh must be a single periodic cell: drop the repeated
// boundary slice with [grid.Bands.Interior] first, and close the result
// again with [grid.Expand].
package susceptibility
