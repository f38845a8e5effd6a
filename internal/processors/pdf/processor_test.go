package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdocs/internal/chunking"
	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
)

// fakeRunner answers pdfinfo with a fixed report and pdftotext per page.
type fakeRunner struct {
	info      string
	infoErr   error
	pages     map[string]string
	pageErrs  map[string]error
	pageCalls []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	switch name {
	case "pdfinfo":
		return []byte(f.info), f.infoErr
	case "pdftotext":
		page := args[1]
		f.pageCalls = append(f.pageCalls, page)
		if err := f.pageErrs[page]; err != nil {
			return nil, err
		}
		return []byte(f.pages[page]), nil
	default:
		return nil, errors.New("unexpected command " + name)
	}
}

func tempPDF(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake pdf content"), 0644))
	return path
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Processor = (*Processor)(nil)
}

func TestCanProcess(t *testing.T) {
	p := NewWithRunner(&fakeRunner{}, nil)

	assert.Equal(t, "pdf", p.Name())
	assert.True(t, p.CanProcess("report.pdf", ""))
	assert.True(t, p.CanProcess("REPORT.PDF", ""))
	assert.True(t, p.CanProcess("download", "application/pdf"))
	assert.False(t, p.CanProcess("notes.txt", "text/plain"))
	assert.False(t, p.CanProcess("https://example.com/page", ""))
}

func TestProcess_PagesWithBlankPage(t *testing.T) {
	runner := &fakeRunner{
		info: "Title:          Field Guide\nAuthor:         A. Writer\nPages:          3\n",
		pages: map[string]string{
			"1": "alpha beta gamma",
			"2": "   \n\f",
			"3": "delta epsilon",
		},
	}
	p := NewWithRunner(runner, chunking.NewWords(chunking.WithMaxSize(1000)))
	path := tempPDF(t, "guide.pdf")

	chunks, err := p.Process(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "alpha beta gamma", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].Metadata.PageNumber)
	assert.Equal(t, 0, chunks[0].Metadata.ChunkIndex)

	assert.Equal(t, "delta epsilon", chunks[1].Text)
	assert.Equal(t, 3, chunks[1].Metadata.PageNumber)
	assert.Equal(t, 0, chunks[1].Metadata.ChunkIndex)

	for _, c := range chunks {
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, path, c.Metadata.Source)
		assert.Equal(t, "Field Guide", c.Metadata.Title)
		assert.Equal(t, "A. Writer", c.Metadata.Author)
		assert.Equal(t, "pdf", c.Metadata.FileType)
	}
	assert.Equal(t, []string{"1", "2", "3"}, runner.pageCalls)
}

func TestProcess_ChunkIndexRestartsPerPage(t *testing.T) {
	long := strings.Repeat("word ", 30)
	runner := &fakeRunner{
		info:  "Pages: 2\n",
		pages: map[string]string{"1": long, "2": long},
	}
	p := NewWithRunner(runner, chunking.NewWords(chunking.WithMaxSize(50)))

	chunks, err := p.Process(context.Background(), tempPDF(t, "long.pdf"))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	perPage := map[int][]int{}
	for _, c := range chunks {
		perPage[c.Metadata.PageNumber] = append(perPage[c.Metadata.PageNumber], c.Metadata.ChunkIndex)
	}
	for page, indexes := range perPage {
		for i, idx := range indexes {
			assert.Equal(t, i, idx, "page %d", page)
		}
	}
}

func TestProcess_TitleFallsBackToFilename(t *testing.T) {
	runner := &fakeRunner{info: "Pages: 1\n", pages: map[string]string{"1": "content"}}
	p := NewWithRunner(runner, nil)

	chunks, err := p.Process(context.Background(), tempPDF(t, "my_document.pdf"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "my_document", chunks[0].Metadata.Title)
	assert.Empty(t, chunks[0].Metadata.Author)
}

func TestProcess_PageErrorIsSkipped(t *testing.T) {
	runner := &fakeRunner{
		info:     "Pages: 2\n",
		pages:    map[string]string{"2": "second page"},
		pageErrs: map[string]error{"1": errors.New("bad xref")},
	}
	p := NewWithRunner(runner, nil)

	chunks, err := p.Process(context.Background(), tempPDF(t, "partial.pdf"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 2, chunks[0].Metadata.PageNumber)
}

func TestProcess_Errors(t *testing.T) {
	t.Run("info failure is a processing error", func(t *testing.T) {
		p := NewWithRunner(&fakeRunner{infoErr: errors.New("pdfinfo crashed")}, nil)

		chunks, err := p.Process(context.Background(), tempPDF(t, "broken.pdf"))
		assert.Nil(t, chunks)

		var pe *domain.ProcessingError
		require.ErrorAs(t, err, &pe)
		assert.Contains(t, err.Error(), "failed to process PDF")
		assert.Contains(t, err.Error(), "pdfinfo crashed")
	})

	t.Run("missing file is a processing error", func(t *testing.T) {
		p := NewWithRunner(&fakeRunner{info: "Pages: 1\n"}, nil)

		_, err := p.Process(context.Background(), "/no/such/file.pdf")
		var pe *domain.ProcessingError
		assert.ErrorAs(t, err, &pe)
	})

	t.Run("missing tool surfaces install hint", func(t *testing.T) {
		p := NewWithRunner(&fakeRunner{infoErr: ErrPDFToolNotFound}, nil)

		_, err := p.Process(context.Background(), tempPDF(t, "doc.pdf"))
		assert.ErrorIs(t, err, ErrPDFToolNotFound)
	})

	t.Run("cancelled context stops extraction", func(t *testing.T) {
		runner := &fakeRunner{info: "Pages: 5\n", pages: map[string]string{"1": "x"}}
		p := NewWithRunner(runner, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := p.Process(ctx, tempPDF(t, "doc.pdf"))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, runner.pageCalls)
	})
}

func TestProcess_ZeroPages(t *testing.T) {
	p := NewWithRunner(&fakeRunner{info: "Pages: 0\n"}, nil)

	chunks, err := p.Process(context.Background(), tempPDF(t, "empty.pdf"))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestParseInfo(t *testing.T) {
	out := []byte(`Title:          Annual Report: 2024
Author:         Finance Team
Creator:        Writer
Pages:          12
Encrypted:      no
`)
	info := parseInfo(out)
	assert.Equal(t, "Annual Report: 2024", info.title)
	assert.Equal(t, "Finance Team", info.author)
	assert.Equal(t, 12, info.pages)

	assert.Equal(t, pdfInfo{}, parseInfo(nil))
	assert.Equal(t, 0, parseInfo([]byte("Pages: many")).pages)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

func TestProcess_Integration(t *testing.T) {
	if err := CheckAvailable(); err != nil {
		t.Skip("poppler not available, skipping integration test")
	}
	t.Skip("integration test requires sample PDF file")
}
