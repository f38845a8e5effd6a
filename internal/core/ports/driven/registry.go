package driven

// ProcessorRegistry selects the processor for a document.
// Processors are consulted in registration order and the first one whose
// CanProcess returns true wins.
type ProcessorRegistry interface {
	// Register appends a processor.
	Register(p Processor)

	// Select returns the first processor accepting the location.
	// The boolean is false when the document is unsupported.
	Select(location, mimeType string) (Processor, bool)

	// Processors returns the registered processors in order.
	Processors() []Processor
}
