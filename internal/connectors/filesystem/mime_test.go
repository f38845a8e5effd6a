package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		filename     string
		expectedMIME string
	}{
		// No extension
		{"file", "application/octet-stream"},
		{"noext", "application/octet-stream"},

		// Custom types
		{"notes.txt", "text/plain"},
		{"doc.md", "text/markdown"},
		{"doc.markdown", "text/markdown"},
		{"code.go", "text/x-go"},
		{"script.py", "text/x-python"},
		{"lib.rs", "text/x-rust"},
		{"Main.java", "text/x-java"},
		{"main.c", "text/x-c"},
		{"main.h", "text/x-c"},
		{"main.cpp", "text/x-c++"},
		{"main.hpp", "text/x-c++"},
		{"app.ts", "text/typescript"},
		{"component.tsx", "text/typescript-jsx"},
		{"component.jsx", "text/javascript-jsx"},
		{"config.yaml", "text/yaml"},
		{"config.yml", "text/yaml"},
		{"config.toml", "text/toml"},
		{"script.sh", "text/x-shellscript"},
		{"script.bash", "text/x-shellscript"},
		{"query.sql", "text/x-sql"},
		{"data.xml", "application/xml"},

		// Standard MIME types
		{"data.json", "application/json"},
		{"page.html", "text/html"},
		{"style.css", "text/css"},
		{"script.js", "text/javascript"},
		{"doc.pdf", "application/pdf"},
		{"image.png", "image/png"},

		// Unknown extension
		{"file.zzzzunknown", "application/octet-stream"},
		{"file.xyzabc123", "application/octet-stream"},

		// Case insensitive
		{"FILE.MD", "text/markdown"},
		{"FILE.GO", "text/x-go"},
		{"File.Yaml", "text/yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expectedMIME, DetectMIMEType(tt.filename))
		})
	}

	t.Run("strips charset from mime type", func(t *testing.T) {
		for _, file := range []string{"file.html", "file.css", "file.js"} {
			mimeType := DetectMIMEType(file)
			assert.NotContains(t, mimeType, "charset")
			assert.NotContains(t, mimeType, ";")
		}
	})
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"/root/.config/file.txt", true},
		{"dir/.git/config", true},
		{".config/.cache/data", true},

		{"file.txt", false},
		{"path/to/file.txt", false},
		{"file.hidden", false},
		{"directory.name/file", false},

		{".", false},
		{"..", false},
		{"path/./file", false},
		{"path/../file", false},
		{"", false},
		{"/", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}
