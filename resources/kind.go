package resources

import (
	"path/filepath"
	"strings"
)

type Kind int

const (
	KindCopy Kind = iota
	KindScene
)

func (k Kind) String() string {
	switch k {
	case KindCopy:
		return "copy"
	case KindScene:
		return "scene"
	default:
		return "unknown"
	}
}

// Classifier resolves the Kind of a source file from its lowercase extension.
type Classifier struct {
	kinds         map[string]Kind
	meshExtension string
}

func NewClassifier(sceneExtensions []string, meshExtension string) *Classifier {
	c := &Classifier{
		kinds:         make(map[string]Kind, len(sceneExtensions)),
		meshExtension: meshExtension,
	}
	for _, ext := range sceneExtensions {
		c.kinds[strings.ToLower(ext)] = KindScene
	}
	return c
}

func (c *Classifier) Kind(path string) Kind {
	if k, ok := c.kinds[strings.ToLower(filepath.Ext(path))]; ok {
		return k
	}
	return KindCopy
}

// Output is the file materialize writes for a destination of kind k.
func (c *Classifier) Output(destination string, k Kind) string {
	if k == KindScene {
		return strings.TrimSuffix(destination, filepath.Ext(destination)) + c.meshExtension
	}
	return destination
}
