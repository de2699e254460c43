// Package persona holds the assistant's voice: the witty response tables
// and the Picker that chooses among them.
//
// Lines are stored without the "M.U.K.H.T.A.R: " prefix; the console adds
// it when printing and the speaker never says it.
package persona
