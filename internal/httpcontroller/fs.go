package httpcontroller

import (
	"io/fs"
	"net/http"
	"path"
)

// noListingFileSystem wraps http.FileSystem to disable directory listing.
// A directory resolves only when it contains an index.html.
type noListingFileSystem struct {
	http.FileSystem
}

func (nfs noListingFileSystem) Open(name string) (http.File, error) {
	f, err := nfs.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}

	s, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	if s.IsDir() {
		index := path.Join(name, "index.html")
		idx, err := nfs.FileSystem.Open(index)
		if err != nil {
			f.Close()
			return nil, fs.ErrNotExist
		}
		idx.Close()
	}

	return f, nil
}
