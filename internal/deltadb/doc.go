// Package deltadb reads and rewrites the emulator's cheat store, a SQLite
// object-graph database with a ZGAME and a ZCHEAT table.
//
// # Overview
//
// A Store wraps one store file. Import joins every cheat row to its game row
// and turns the result into an overlay keyed by cheat name; Apply writes a
// selection of cheats back into the file inside a single transaction,
// updating rows matched by name and inserting the rest.
//
// # Codes
//
// CanonicalCode regroups codes into one 8-digit word per line. The emulator
// displays Action Replay codes as two words per line separated by a space;
// stores written here still import there, but show one word per line until
// the user edits the cheat.
//
// # Formats
//
// Store layouts are described by a versioned Format table. Stores without a
// Z_METADATA table are treated as version 0 (the bare two-table layout);
// Core Data stores carry their version in Z_METADATA.Z_VERSION and their
// entity numbers in Z_PRIMARYKEY. An unknown version is reported as
// common.ErrSchema rather than guessed.
//
// Typical usage
//
//	s, err := deltadb.Open(ctx, path)
//	if err != nil { ... }
//	defer s.Close()
//	overlay, err := s.Import(ctx, contentKey)
//	res, err := s.Apply(ctx, contentKey, selected, time.Now())
package deltadb
