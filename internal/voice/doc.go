// Package voice provides speech input and output for the console.
//
// Input records one utterance with an external capture command and sends
// it to an OpenAI-compatible transcription endpoint. Output runs espeak.
// Both are optional and enabled from the voice config section.
package voice
