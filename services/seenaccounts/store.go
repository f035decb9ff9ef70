package seenaccounts

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/mailboost/mailboost/interfaces"
	"github.com/mailboost/mailboost/internal/tracing"
)

// fileStore keeps the seen-account set in a flat file of newline-separated
// usernames, sorted, UTF-8. The file may be edited by hand between passes,
// so it is reloaded at the start of every pass instead of cached.
type fileStore struct {
	path string
}

func NewFileStore(path string) interfaces.SeenAccountStore {
	return &fileStore{path: path}
}

func (s *fileStore) Load(ctx context.Context) (map[string]bool, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "SeenAccountStore.Load")
	defer span.Finish()
	tracing.SetDefaultFileStoreSpanTags(ctx, span)

	accounts := make(map[string]bool)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// First run: nothing persisted yet.
			return accounts, nil
		}
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to read seen accounts file")
	}

	for _, line := range strings.Split(string(data), "\n") {
		username := strings.TrimSpace(line)
		if username != "" {
			accounts[username] = true
		}
	}

	span.LogFields(tracingLog.Int("accounts", len(accounts)))
	return accounts, nil
}

// Save rewrites the whole file through a temp file and rename, so a crash
// mid-write leaves the previous copy intact.
func (s *fileStore) Save(ctx context.Context, accounts map[string]bool) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "SeenAccountStore.Save")
	defer span.Finish()
	tracing.SetDefaultFileStoreSpanTags(ctx, span)
	span.LogFields(tracingLog.Int("accounts", len(accounts)))

	usernames := make([]string, 0, len(accounts))
	for username := range accounts {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.WriteString(strings.Join(usernames, "\n") + "\n")
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		err := writeErr
		if err == nil {
			err = closeErr
		}
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to write seen accounts file")
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to replace seen accounts file")
	}

	return nil
}
