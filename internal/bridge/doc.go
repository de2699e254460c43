// Package bridge connects the controller to MQTT.
//
// It publishes retained device state, sensor readings and automation mode,
// publishes every critical alert, and feeds text arriving on the command
// topic through the same dispatcher the console uses. Replies go to the
// reply topic as JSON.
package bridge
