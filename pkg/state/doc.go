// Package state defines the persistence contract for profiles plus a small
// resolver that runs read-modify-write cycles against it.
//
// Responsibilities:
//   - Store only loads, saves and deletes one profile by id.
//   - Resolver loads (or creates) a profile, applies a Mutator, validates the
//     result and hands the changes back to the Store.
//   - The profiles package stays persistence-agnostic; MemoryStore and
//     RemoteStore are the two implementations shipped here.
//
// Data flow:
//
//	Store.Load -> Mutator -> Profile.IsValid -> Store.Save
//
// Concurrency:
//
//	Meta.ETag is owned by the store. Passing WithExpectedETag to Mutate makes
//	the cycle fail with ErrETagMismatch when the stored copy moved on. Stores
//	that cannot track versions (RemoteStore) leave ETag empty, which disables
//	the check.
package state
