/*
Package dl implements dynamic loading of native modules for scripts.

A module is located by the content hash of its image among the cell deps of
the transaction being verified, decoded, linked against a native
implementation registered in a Linker and exposed as a Library with named
symbols. Nothing is cached between Load calls, every script invocation pays
the resolution cost again.
*/
package dl
