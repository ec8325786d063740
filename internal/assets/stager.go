// Package assets manages staged product images: preview-handle lifecycle,
// ingestion, removal and upload of the primary image.
package assets

import (
	"strconv"
	"strings"
	"sync"
)

// PreviewAllocator creates and revokes the revocable display handles staged
// images are previewed through. Every allocated handle must be revoked
// exactly once, on removal, on commit or on Close.
type PreviewAllocator interface {
	Allocate(name string, data []byte) string
	Revoke(handle string)
}

// File is a to-be-staged image as it arrives from a picker or a drop.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// StagedImage is one entry in the stager's ordered list. The first entry of
// the list is the primary image; there is no separate primary flag.
type StagedImage struct {
	Name        string
	ContentType string
	Data        []byte
	Preview     string
	Size        int64
}

type Stager struct {
	mu       sync.Mutex
	previews PreviewAllocator
	images   []StagedImage
	closed   bool
}

func NewStager(previews PreviewAllocator) *Stager {
	return &Stager{previews: previews}
}

// Ingest stages files from the file picker, appending them in order.
func (s *Stager) Ingest(files []File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, f := range files {
		s.images = append(s.images, StagedImage{
			Name:        f.Name,
			ContentType: f.ContentType,
			Data:        f.Data,
			Preview:     s.previews.Allocate(f.Name, f.Data),
			Size:        int64(len(f.Data)),
		})
	}
}

// IngestDrop stages dropped files, keeping only image content types.
func (s *Stager) IngestDrop(files []File) {
	imgs := files[:0:0]
	for _, f := range files {
		if strings.HasPrefix(f.ContentType, "image/") {
			imgs = append(imgs, f)
		}
	}
	if len(imgs) > 0 {
		s.Ingest(imgs)
	}
}

// Remove revokes the entry's preview handle and splices it out. Removing the
// first entry makes the next one primary.
func (s *Stager) Remove(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.images) {
		return
	}
	s.previews.Revoke(s.images[index].Preview)
	s.images = append(s.images[:index], s.images[index+1:]...)
}

// Primary returns the first staged image, if any.
func (s *Stager) Primary() (StagedImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.images) == 0 {
		return StagedImage{}, false
	}
	return s.images[0], true
}

// List returns a copy of the staged entries in order.
func (s *Stager) List() []StagedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StagedImage, len(s.images))
	copy(out, s.images)
	return out
}

func (s *Stager) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// PreviewRefs returns the preview handles in order, for draft snapshots.
func (s *Stager) PreviewRefs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := make([]string, len(s.images))
	for i, img := range s.images {
		refs[i] = img.Preview
	}
	return refs
}

// Close revokes every still-held preview handle. Safe to call more than
// once; handles are only revoked the first time.
func (s *Stager) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, img := range s.images {
		s.previews.Revoke(img.Preview)
	}
	s.images = nil
}

// FormatSize renders a byte count as Bytes/KB/MB with two-decimal rounding.
func FormatSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	const k = 1024
	sizes := []string{"Bytes", "KB", "MB"}
	i := 0
	v := float64(bytes)
	for v >= k && i < len(sizes)-1 {
		v /= k
		i++
	}
	rounded := float64(int64(v*100+0.5)) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizes[i]
}
