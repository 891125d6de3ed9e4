// Package fs abstracts the file calls made by the local snapshot store so
// tests can inject faults.
//
// Production code uses fs.Default. Tests wrap it in a FaultyFS, whose rules
// match any file whose path contains the pattern:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("arena", fs.Fault{FailAfterBytes: -1, FailOnSync: true})
package fs
