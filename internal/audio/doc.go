// Package audio obtains a decodable audio file for a video when captions are
// unavailable or skipped.
//
// Acquire downloads the best audio-only stream with yt-dlp into a private
// scratch directory, transcodes it with ffmpeg to mono 16 kHz PCM WAV, and
// verifies the result with ffprobe. The returned Artifact owns that scratch
// directory; callers must Release it on every exit path.
package audio
