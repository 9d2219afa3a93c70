package fs

// Drive is a mounted volume shown under the namespace root.
type Drive struct {
	Name string
	Path string
}
