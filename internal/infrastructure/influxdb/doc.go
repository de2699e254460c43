// Package influxdb records controller telemetry in InfluxDB v2.
//
// Three measurements are written:
//
//	sensor_readings  tag kind,   fields value, raw
//	device_state     tag device, field on (0 or 1)
//	alerts                       fields message, delivered
//
// Writes are batched and non-blocking. Asynchronous failures are passed
// to the SetOnError callback. Telemetry is optional; the controller runs
// without it.
package influxdb
