package domain

// RawText is imported content before normalisation.
type RawText struct {
	// Name is the original file name; it seeds the title.
	Name string

	// MIMEType is the content type.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// NormalisedText is cleaned text ready to be saved as a version.
type NormalisedText struct {
	Title string
	Text  string
}
