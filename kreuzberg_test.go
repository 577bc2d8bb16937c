package kreuzberg

import (
	"testing"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/registry"
)

func TestRegisterBuiltinsCoversCoreMimeTypes(t *testing.T) {
	reg := registry.New()
	if err := registerBuiltins(reg, nil); err != nil {
		t.Fatalf("registerBuiltins: %v", err)
	}

	for _, mt := range []string{
		"application/pdf", "text/html", "text/plain", "text/markdown",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
	} {
		if _, err := reg.Get(mt); err != nil {
			t.Errorf("expected a plugin for %s, got error: %v", mt, err)
		}
	}

	if _, err := reg.Get("application/x-never-registered"); err == nil {
		t.Error("expected no plugin for an unregistered mime type")
	}
}
