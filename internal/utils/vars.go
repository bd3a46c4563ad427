package utils

// DefaultBufferSize is the chunk size for streamed transfers.
const DefaultBufferSize = 256 * 1024

const DefaultUserAgent = "revup-updater"

// SidecarSuffix marks a partial transfer next to its eventual target.
const SidecarSuffix = ".download"
