// Package notify delivers emergency alerts to the operator.
//
// A Channel fans one alert out to SMS (Twilio REST or a local GSM modem)
// and Telegram. Every body carries the AlertPrefix so recipients can
// filter on it. Only alerts go out this way; routine device changes are
// never sent.
package notify
