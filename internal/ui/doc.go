// Package ui turns git lifecycle events into short console messages for operators
// running the licenser with the console log format.
package ui
