// Package jsonindex provides a transform, index and lookup engine for
// loosely-structured hierarchical JSON.
//
// # Pipeline
//
// Raw documents flow through three stages:
//
//	┌─────────────────────────────────────┐
//	│          Transform                  │  Entity-array detection,
//	│   (detect, adapter, transform)      │  field → id → items reshaping
//	└─────────────────────────────────────┘
//	           ↓ normalized document
//	┌─────────────────────────────────────┐
//	│          Index Store                │  root → field → key lists,
//	│         (indexstore)                │  "__all__" aggregates
//	└─────────────────────────────────────┘
//	           ↓ reads
//	┌─────────────────────────────────────┐
//	│           Lookup                    │  root / field / key reads,
//	│      (engine, service, gateway)     │  NATS request-reply, HTTP
//	└─────────────────────────────────────┘
//
// # Transform
//
// Arrays whose elements look like entities (consistent structure, an
// identifiable ID property) are reshaped: each element's properties are
// grouped per field and keyed by the element's ID, with every stored value
// carrying a parentId trail back to its entity. Arrays that don't look like
// entity collections, plain objects and scalars pass through unchanged.
//
// Detection is heuristic by default and can be pinned per root through the
// adapter: register an entity type with a known ID property, or bind custom
// detection and extraction rules.
//
// # Index store
//
// The store is a three-level structure, root name → field name → key →
// ordered item list. Each field carries a "__all__" key aggregating its
// items; large multi-field roots additionally carry a root-level "__all__"
// collection. A full index swaps in a fresh store; appends grow the live
// store without removing anything already indexed.
//
// # Serving
//
// The engine is usable as a library through Index, Append and the Lookup
// methods. The service and gateway packages put it behind NATS subjects
// (ingest, reindex, lookup request-reply) and an HTTP read API; the
// jsonindexd daemon wires both together.
package jsonindex
