package cli

// Export internal functions and values for testing.

// RunTranscribe exports runTranscribe for testing.
var RunTranscribe = runTranscribe

// DeriveOutputPath exports deriveOutputPath for testing.
var DeriveOutputPath = deriveOutputPath

// SupportedFormatsList exports supportedFormatsList for testing.
var SupportedFormatsList = supportedFormatsList

// WriteExclusive exports writeExclusive for testing.
var WriteExclusive = writeExclusive
