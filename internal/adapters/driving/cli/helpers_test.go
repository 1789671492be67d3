package cli

import (
	"context"
	"testing"

	"github.com/markbear/markbear/internal/adapters/driven/config/file"
	"github.com/markbear/markbear/internal/core/domain"
)

// fakeConversion records calls and returns canned values so command tests
// never touch real document files.
type fakeConversion struct {
	importMarkdown string
	importWarnings []domain.Warning
	importErr      error

	exportWarnings []domain.Warning
	exportErr      error

	gotFormat   domain.Format
	gotPath     string
	gotMarkdown string
}

func (f *fakeConversion) Import(_ context.Context, format domain.Format, path string) (string, []domain.Warning, error) {
	f.gotFormat = format
	f.gotPath = path
	return f.importMarkdown, f.importWarnings, f.importErr
}

func (f *fakeConversion) Export(_ context.Context, format domain.Format, markdown, path string) ([]domain.Warning, error) {
	f.gotFormat = format
	f.gotMarkdown = markdown
	f.gotPath = path
	return f.exportWarnings, f.exportErr
}

// setupTestServices injects a fake conversion service and a throwaway
// config store, returning the fake and a cleanup that restores package
// state so tests stay independent.
func setupTestServices(t *testing.T) (*fakeConversion, func()) {
	t.Helper()

	store, err := file.NewConfigStore(t.TempDir())
	if err != nil {
		t.Fatalf("config store: %v", err)
	}

	fake := &fakeConversion{}
	conversionService = fake
	configStore = store

	return fake, func() {
		conversionService = nil
		configStore = nil
		importFormatFlag = ""
		importOutFlag = ""
		importOutDirFlag = ""
		exportToFlag = ""
		rootCmd.SetArgs(nil)
	}
}
