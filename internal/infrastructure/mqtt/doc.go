// Package mqtt connects the controller to an MQTT broker.
//
// All topics share a configurable prefix (default "mukhtar"):
//
//	mukhtar/state/{device}    retained "on"/"off" JSON state
//	mukhtar/sensor/{kind}     retained latest reading
//	mukhtar/mode              retained automation mode
//	mukhtar/alert             critical alerts
//	mukhtar/command           free-text commands in
//	mukhtar/reply             command responses out
//	mukhtar/system/status     retained online/offline, also the LWT
//
// The client reconnects automatically and restores its subscriptions.
// MQTT is optional; the controller runs without it.
package mqtt
