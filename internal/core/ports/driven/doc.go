// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the chunk/document store, the embedding
// service, OCR, configuration, and the processing pipeline.
package driven
