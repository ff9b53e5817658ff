// Package host defines the adapter interface the renderer drives.
//
// An Adapter owns a concrete output tree (an in-memory tree, a wire stream,
// a terminal buffer) and exposes eight primitives. The renderer never touches
// host nodes except through these primitives and the opaque Handle values
// they return.
//
// Implementations in this module:
//
//   - memhost: an in-memory tree with an operation log
//   - wirehost: serialises primitives into protocol frames
package host
