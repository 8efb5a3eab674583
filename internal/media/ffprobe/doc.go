// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe on a media file and decodes its streams and container
// format. Result helpers expose the audio stream facts the audio adapter
// checks before handing a file to speech recognition.
package ffprobe
