package tether

// Version is the tether library version.
const Version = "0.1.0"
