// Package normalisers provides implementations of the Normaliser interface
// for the text formats quill imports. Each normaliser turns raw bytes of a
// specific MIME type into clean text with a title.
//
// Normalisers are registered with the Registry at startup.
package normalisers
