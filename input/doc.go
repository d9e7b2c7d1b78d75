// Package input provides the streaming source abstraction used to read list data.
//
// An [Input] is bound to a single [Descriptor] for its lifetime. It opens its source lazily on the
// first call to Chunk, yields the source incrementally as byte chunks, and can be Reset to discard
// the open handle and re-read from the beginning.
//
// Inputs provided by the package:
//   - [FileInput] reads a file-backed location, optionally gzip compressed or held as a named member
//     of a gzip compressed tar archive. The location may be a local path or an s3://, gs:// or ftp://
//     object.
//   - [NetworkInput] streams the body of an HTTP GET.
//
// ##### Chunk boundaries
//
//   - uncompressed file-backed inputs return one newline-delimited record per call, trailing newline included
//   - gzip, tar.gz and network inputs return up to ChunkSize bytes per call with no record boundary guarantee
//
// Decompression is layered by wrapping readers: the raw location stream is buffered, wrapped in a
// gzip reader and, for archives, the tar reader is positioned on the requested member.
//
// An Input is not safe for concurrent use. Wrap it in a [LockedInput] to share it between goroutines.
package input
