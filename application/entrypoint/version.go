package entrypoint

// Version is the SDK version reported in the manifest.
const Version = "0.1.0"
