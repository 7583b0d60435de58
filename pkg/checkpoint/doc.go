// Package checkpoint records how far a campaign got, so a stopped or crashed
// run can resume at the first row that was not yet processed.
//
// A checkpoint is a single integer per key: the index of the next job to
// process. Keys are derived from the input file with Key so that different
// spreadsheets never share progress.
//
// Two backends are provided:
//
//	store, err := checkpoint.NewFileStore(".mailmerge")           // local file per key
//	store, err := checkpoint.NewRedisStore(ctx, "redis://localhost:6379/0") // shared across machines
//
// Both satisfy Store.
package checkpoint
