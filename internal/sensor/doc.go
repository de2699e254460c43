// Package sensor provides the Sensor Gateway: analog reads through the
// relay, normalised to the units the automation thresholds expect.
//
//	temperature  A0  raw * 0.1        °C
//	humidity     A1  raw              (unscaled)
//	light        A2  raw / 1024 * 100 %
//	gas          A3  raw              (unscaled)
//
// Pins come from configuration; the defaults are shown above.
package sensor
