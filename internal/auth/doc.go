// Package auth resolves users from an external credential store and gates
// access to the portal.
//
// Raw records from the store are normalized into a Directory of canonical
// UserRecords that only ever hold bcrypt hashes. Whether a stored secret is
// already hashed comes from an explicit flag written by the store, never from
// the shape of the secret itself.
package auth
