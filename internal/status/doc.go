// Package status builds the controller status report: automation mode,
// a fresh reading of every sensor and the device table.
package status
