// Package dom provides the parsed HTML tree model and the diff/patch
// engine used to compute incremental updates between two renders of the
// same page.
//
// A tree is produced by Parse, which assigns each element a numeric ID
// unique within that parse. Diff compares two trees positionally and
// returns the ordered patch list that transforms the old tree into the
// new one; patches address nodes by old-tree IDs and are serialized as a
// field-tagged JSON union for the live-update transport.
package dom
