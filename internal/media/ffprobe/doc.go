// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Two entry points cover the pipeline's needs:
//   - Inspect: stream and container metadata (-show_streams -show_format)
//   - InspectFrames: first-frame side data for HDR static metadata
//
// Rational-valued fields (frame rates, chromaticity coordinates, luminances)
// are kept as strings; callers decide when and whether to convert them.
package ffprobe
