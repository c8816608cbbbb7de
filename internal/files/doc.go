// Package files manages the lifetime of temporary files holding provider downloads.
//
// A Manager tracks each file it creates. Callers remove a file as soon as it
// has been decoded; Cleanup removes whatever is left at shutdown.
//
//	mgr := files.NewManager(cfg.TempDir(), logger)
//	defer mgr.Cleanup()
//
//	f, err := mgr.CreateTemp("codes-*.download")
//	...
//	defer mgr.Remove(f.Name())
package files
