// Package matcher is the public entry point to fuzzymatch.
//
// A Matcher holds one scorer per configured field. Create indexes a table
// of records keyed by an identity column, Get ranks the identities most
// similar to a target record, and Delete removes every persisted index.
//
// # Usage
//
//	m, err := matcher.New(ctx,
//	    matcher.WithTopN(5),
//	    matcher.WithField("name", matcher.Field{Algorithm: "jaro-winkler"}),
//	    matcher.WithField("joined", matcher.Field{Algorithm: "timedelta", Weight: 2}),
//	    matcher.WithEncryptionKey(os.Getenv("FUZZYMATCH_KEY")),
//	    matcher.WithStoragePath("./.fuzzymatch"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	err = m.Create(ctx, columns, rows, "person_id")
//	matches, err := m.Get(ctx, map[string]string{"name": "Bob", "joined": "15-06-2021"})
//
// # Thread Safety
//
// Get may be called concurrently. Create and Delete are serialized against
// each other, also across processes sharing a storage path.
package matcher
