// Package merge orchestrates the upload-to-merge pipeline.
//
// One Job exists per request: uploads are staged into a private workspace,
// an ffmpeg concat manifest is written in submission order, ffmpeg runs as
// an isolated process, and the merged artifact is handed back for delivery.
// Every exit path concludes through the job finalizer, which journals the
// outcome and removes all transient artifacts exactly once.
package merge
