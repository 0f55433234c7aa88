package model

// Path represents a file system path.
type Path string

// SourceFile is a Go source file discovered in the target tree.
type SourceFile struct {
	// Path is the absolute path of the file in the operator's tree.
	Path Path
	// RelPath is slash-separated and relative to the module root.
	RelPath Path
	// Package is the Go package name declared by the file.
	Package string
	// Hash is the sha256 of Content.
	Hash    string
	Content []byte
}

// FileError records a file that could not be cataloged.
type FileError struct {
	File    Path   `json:"file" yaml:"file"`
	Message string `json:"message" yaml:"message"`
}
