// Package journal keeps an append-only SQLite record of what the controller
// did: acknowledged actuations, alerts, mode switches and handled commands.
//
// The journal is for operators. The controller never reads it back, so
// device state still starts OFF on every run.
package journal
