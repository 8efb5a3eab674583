// Package services defines shared utilities consumed by the pipeline stages and
// the external collaborators they drive.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, video identifiers, and stage names
//     for logging.
//   - Structured error markers plus the Wrap helper that keep the failure
//     taxonomy (invalid reference, audio unavailable, transcription failed,
//     write failure) intact as errors cross package boundaries.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
