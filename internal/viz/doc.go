// Package viz provides terminal rendering helpers for the drawing pad.
//
//   - [Canvas]: Braille-based dot canvas; [Canvas.Rasterize] turns the pad
//     raster into a 2x4-dots-per-cell preview
//   - [Theme] and [Styles]: colour schemes for the panel and the rain
//   - [GradientText], [AnimatedSpinner]: small decorations for headers
//
// Five themes are built in; T cycles them in the terminal pad.
package viz
