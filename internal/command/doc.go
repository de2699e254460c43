// Package command turns free text (typed, spoken, or received over MQTT)
// into an Intent by keyword matching against fixed phrase tables.
//
//	in := command.NewInterpreter(registry.Names())
//	intent := in.Interpret("please turn on the fan now")
//	// intent.Action == command.TurnOn, intent.Device == "fan"
//
// A device rule needs both an on/off phrase and a configured device name;
// otherwise classification continues with the next rule.
package command
