// Package password hashes and verifies user passwords.
//
// New hashes are Argon2id in PHC form:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Existing school accounts carry bcrypt hashes ($2a$/$2b$/$2y$). [Multi]
// verifies either format and always hashes with its primary scheme, and
// [Multi.NeedsRehash] tells the caller when a stored hash should be
// upgraded after a successful login.
//
// Plaintext passwords are never logged or stored by this package.
package password
