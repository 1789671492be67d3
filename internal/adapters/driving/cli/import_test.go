package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markbear/markbear/internal/core/domain"
)

func TestImportCmd_Use(t *testing.T) {
	assert.Equal(t, "import <file> [file...]", importCmd.Use)
}

func TestImportCmd_RequiresAnArg(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"import"})

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestImportCmd_PrintsMarkdownToStdout(t *testing.T) {
	fake, cleanup := setupTestServices(t)
	defer cleanup()
	fake.importMarkdown = "# Title\n\nbody\n"

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"import", "report.docx"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nbody\n", buf.String())
	assert.Equal(t, domain.FormatDOCX, fake.gotFormat)
	assert.Equal(t, "report.docx", fake.gotPath)
}

func TestImportCmd_FormatFlagOverridesExtension(t *testing.T) {
	fake, cleanup := setupTestServices(t)
	defer cleanup()

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"import", "--format", "pdf", "saved.bin"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, domain.FormatPDF, fake.gotFormat)
}

func TestImportCmd_UnknownExtension(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"import", "notes.txt"})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestImportCmd_WarningsGoToStderr(t *testing.T) {
	fake, cleanup := setupTestServices(t)
	defer cleanup()
	fake.importMarkdown = "text\n"
	fake.importWarnings = []domain.Warning{domain.Warningf("table row 2 padded from 1 to 3 cells")}

	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs([]string{"import", "sheet.xlsx"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "text\n", out.String())
	assert.Contains(t, errOut.String(), "warning: table row 2 padded")
}

func TestImportCmd_OutputFlagWritesFile(t *testing.T) {
	fake, cleanup := setupTestServices(t)
	defer cleanup()
	fake.importMarkdown = "slide one\n"

	dest := filepath.Join(t.TempDir(), "out.md")
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"import", "-o", dest, "deck.pptx"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "slide one\n", string(data))
}

func TestImportCmd_MultipleFilesWriteSiblings(t *testing.T) {
	fake, cleanup := setupTestServices(t)
	defer cleanup()
	fake.importMarkdown = "converted\n"

	dir := t.TempDir()
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"import", filepath.Join(dir, "a.docx"), filepath.Join(dir, "b.xlsx")})

	err := rootCmd.Execute()

	require.NoError(t, err)
	for _, name := range []string{"a.md", "b.md"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, "converted\n", string(data))
	}
}

func TestImportCmd_MultipleFilesWriteToOutDir(t *testing.T) {
	fake, cleanup := setupTestServices(t)
	defer cleanup()
	fake.importMarkdown = "converted\n"

	dir := t.TempDir()
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"import", "--out-dir", dir, "a.docx", "b.xlsx"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	for _, name := range []string{"a.md", "b.md"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, "converted\n", string(data))
	}
}

func TestMarkdownDest(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "report.md"), markdownDest(filepath.Join("in", "report.docx"), "out"))
	assert.Equal(t, filepath.Join("in", "report.md"), markdownDest(filepath.Join("in", "report.docx"), ""))
	assert.Equal(t, filepath.Join("out", "plain.md"), markdownDest("plain", "out"))
}
