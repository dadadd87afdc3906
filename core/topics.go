package core

// DefaultCatalog is the candidate-topic set consulted on every turn when
// no explicit catalog is configured. Labels are ledger-visible identifiers;
// renaming one abandons the records stored under the old key.
var DefaultCatalog = []string{
	"identity_profile",
	"preferences",
	"goals",
	"relationships",
	"projects",
}
