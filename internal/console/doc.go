// Package console implements the interactive command loop on stdin.
//
// Input is one command per line: "status", "voice", "quit" (or "exit",
// "bye"), or free text for the dispatcher. Every reply is printed as
// "[HH:MM:SS] M.U.K.H.T.A.R: ..." and, with a Speaker set, read aloud.
package console
