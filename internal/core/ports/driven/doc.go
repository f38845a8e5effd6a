// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Generates vector embeddings (Ollama, OpenAI)
//   - VectorStore: Vector storage and similarity search (Qdrant, SQLite, memory)
//   - Processor: Turns a path or URL into chunks (PDF, text, web)
//   - ProcessorRegistry: Selects the processor for a document
//   - Chunker: Splits extracted text into bounded pieces
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or processor package
package driven
