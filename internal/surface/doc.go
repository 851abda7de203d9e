// Package surface implements the drawing pad raster.
//
// A [Surface] owns an RGBA pixel buffer and a single pointer-down flag:
//
//   - [Surface.Begin] and [Surface.End] bracket a stroke
//   - [Surface.Paint] stamps a filled circle while a stroke is active
//   - [Surface.Clear] resets every pixel to the paper colour
//
// Strokes are not recorded anywhere except in the pixels, so there is no
// undo. Snapshots are deep copies and can be encoded to PNG or to a
// data URL while the pad keeps changing.
//
// # Thread Safety
//
// Surface is NOT thread-safe. Front-ends mutate it from their UI loop only
// and hand snapshots to other goroutines.
package surface
