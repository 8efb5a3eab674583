// Package awstranscribe recognizes speech with Amazon Transcribe.
//
// The audio artifact is uploaded to S3, a transcription job is started
// against it and polled until it finishes, and the job's JSON result is read
// back from the same bucket. Word items are grouped into sentence segments.
// Uploaded objects are removed afterwards unless the caller keeps them.
package awstranscribe
