package driven

// Splitter cuts document text into chunks for embedding.
type Splitter interface {
	// Name returns the splitter name for logging and configuration.
	Name() string

	// Split returns the chunks of text in order. It never returns an empty
	// slice: empty text yields a single placeholder chunk.
	Split(text string) []string
}
