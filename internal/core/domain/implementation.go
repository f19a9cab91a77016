package domain

// Stamp is the modification fingerprint recorded when a candidate is probed.
type Stamp struct {
	ModTime int64
	Size    int64
}

// Implementation is a physical file bound to a Key.
// It is owned by the catalog; caches refer to it by path and stamp.
type Implementation struct {
	Key   Key
	Path  string
	Root  string
	Stamp Stamp
}

// SamePath reports whether both implementations point at the same physical file.
func (i Implementation) SamePath(o Implementation) bool {
	return i.Path == o.Path
}
