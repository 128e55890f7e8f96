package statelab

// Version is the library version, overridden at build time by the release pipeline.
var Version = "0.1.0-dev"
