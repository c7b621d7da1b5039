package version

// Name is the published package name used for registry lookups.
const Name = "errdeck"

// Version is the running release.
const Version = "1.4.2"
