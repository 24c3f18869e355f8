package archive

import (
	"bytes"
	"context"
	"io"
)

// MemoryObject is a snapshot captured by NewWithMemory
type MemoryObject struct {
	Name        string
	ContentType string
	Metadata    map[string]string
	Data        bytes.Buffer
}

type memoryWriter struct {
	objects *[]*MemoryObject
}

type memoryObjectWriter struct {
	obj *MemoryObject
}

func (w *memoryObjectWriter) Write(p []byte) (int, error) { return w.obj.Data.Write(p) }
func (w *memoryObjectWriter) Close() error                { return nil }

func (m *memoryWriter) NewWriter(_ context.Context, name string, attrs objectAttrs) io.WriteCloser {
	obj := &MemoryObject{Name: name, ContentType: attrs.ContentType, Metadata: attrs.Metadata}
	*m.objects = append(*m.objects, obj)
	return &memoryObjectWriter{obj: obj}
}

// NewWithMemory returns an Archive that records objects in memory
func NewWithMemory(bucket string, objects *[]*MemoryObject, opts ...Option) *Archive {
	a := &Archive{bucket: bucket, writer: &memoryWriter{objects: objects}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}
