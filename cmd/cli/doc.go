// Package cli wires the relicense commands into Cobra applications that share
// configuration loading and structured logging. NewApplication exposes both
// commands under one root; NewEnumeratorApplication and NewLicenserApplication
// mount a single command as the root of its own binary.
package cli
