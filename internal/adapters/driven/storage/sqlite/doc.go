// Package sqlite implements the Store port on an embedded SQLite
// database. Embeddings are stored as little-endian float32 blobs and
// nearest-neighbour search is a brute-force scan over the owner's
// chunks, which is adequate for personal-scale corpora.
package sqlite
