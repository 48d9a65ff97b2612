// Package document abstracts the live document hosted by a rendering surface.
//
// A Document exposes three things to the page-side content context:
//   - Snapshot: an immutable parse of the current document state
//   - Changes: a coalescing notification channel fired on subtree changes
//   - Perform: user actions (click, scroll) routed back into the document
//
// Implementations:
//   - Static: an in-process html.Node tree, mutated programmatically
//   - Poller: wraps any Document and derives change notifications from
//     snapshot hashes, for hosts without a change-notification primitive
//
// Loader fetches remote documents over HTTP into a Static.
package document
