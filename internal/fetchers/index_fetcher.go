package fetchers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"atmodensity/internal/logger"
	"atmodensity/internal/models"
	"atmodensity/internal/observability"
)

// State is a step of the fetch lifecycle
type State string

const (
	StateIdle         State = "idle"
	StateConnected    State = "connected"
	StateTransferring State = "transferring"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

const anonymousUser = "anonymous"

// maxLineBytes bounds a single index file line
const maxLineBytes = 1 << 20

// Result reports what a single fetch did. It is returned on every path.
type Result struct {
	Spec       models.RemoteFileSpec `json:"spec"`
	State      State                 `json:"state"`
	StatusLine string                `json:"status_line,omitempty"`
	Lines      int                   `json:"lines"`
	Bytes      int64                 `json:"bytes"`
	LocalPath  string                `json:"local_path"`
	Closed     bool                  `json:"closed"`
}

// OK reports whether the file was fully retrieved
func (r *Result) OK() bool {
	return r.State == StateCompleted
}

// IndexFetcher retrieves geomagnetic and solar flux index files over anonymous FTP
type IndexFetcher struct {
	dial    Dialer
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewIndexFetcher creates a fetcher using dial for every session
func NewIndexFetcher(dial Dialer) *IndexFetcher {
	return &IndexFetcher{
		dial: dial,
		log:  logger.GetGlobalLogger().WithComponent("fetchers"),
	}
}

// WithMetrics records every fetch outcome and the bytes written into m
func (f *IndexFetcher) WithMetrics(m *observability.Metrics) *IndexFetcher {
	f.metrics = m
	return f
}

// Fetch retrieves one remote file into spec.LocalDir with a single RETR.
// On any failure the local file is removed and a *TransferError is returned.
func (f *IndexFetcher) Fetch(ctx context.Context, spec models.RemoteFileSpec) (res *Result, err error) {
	res = &Result{Spec: spec, State: StateIdle, LocalPath: spec.LocalPath()}
	fields := map[string]interface{}{
		"host":   spec.Host,
		"remote": spec.RemotePath(),
		"local":  res.LocalPath,
	}

	created := false
	defer func() {
		f.observe(res, err)
		if err == nil {
			return
		}
		res.State = StateFailed
		if created {
			if rmErr := os.Remove(res.LocalPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				f.log.Warn("failed to remove partial file", map[string]interface{}{"local": res.LocalPath, "error": rmErr.Error()})
			}
		}
		f.log.Error("index download failed", err, fields)
	}()

	sess, err := f.dial(ctx, address(spec.Host))
	if err != nil {
		return res, &TransferError{Stage: StageDial, Spec: spec, Err: err}
	}
	res.State = StateConnected
	defer func() {
		if qerr := sess.Quit(); qerr != nil {
			f.log.Debug("quit failed", map[string]interface{}{"host": spec.Host, "error": qerr.Error()})
		}
		res.Closed = true
	}()

	if err := sess.Login(anonymousUser, anonymousUser); err != nil {
		return res, &TransferError{Stage: StageLogin, Spec: spec, Err: err}
	}

	if spec.LocalDir != "" {
		if err := os.MkdirAll(spec.LocalDir, 0755); err != nil {
			return res, &TransferError{Stage: StageCreate, Spec: spec, Err: err}
		}
	}
	out, err := os.Create(res.LocalPath)
	if err != nil {
		return res, &TransferError{Stage: StageCreate, Spec: spec, Err: err}
	}
	created = true
	defer out.Close()

	f.log.Info("starting index download", fields)

	tr, err := sess.Retr(spec.RemotePath())
	if err != nil {
		return res, &TransferError{Stage: StageTransfer, Spec: spec, Err: err}
	}
	res.State = StateTransferring

	stage, copyErr := copyLines(ctx, out, tr, res)
	status, finErr := tr.Finish()
	res.StatusLine = status

	if copyErr != nil {
		return res, &TransferError{Stage: stage, Spec: spec, Err: copyErr}
	}
	if finErr != nil {
		return res, &TransferError{Stage: StageStatus, Spec: spec, Err: finErr}
	}
	if !strings.HasPrefix(status, TransferCompleteMarker) {
		return res, &TransferError{Stage: StageStatus, Spec: spec, Err: fmt.Errorf("%w: %s", ErrIncompleteTransfer, status)}
	}
	if err := out.Close(); err != nil {
		return res, &TransferError{Stage: StageWrite, Spec: spec, Err: err}
	}

	res.State = StateCompleted
	fields["lines"] = res.Lines
	fields["bytes"] = res.Bytes
	f.log.Info("index download complete", fields)
	return res, nil
}

func (f *IndexFetcher) observe(res *Result, err error) {
	if f.metrics == nil {
		return
	}
	outcome := string(models.StatusSuccess)
	if err != nil {
		outcome = string(models.StatusFailure)
	} else {
		f.metrics.FetchBytes.Add(float64(res.Bytes))
	}
	f.metrics.FetchRequests.WithLabelValues(res.Spec.Host, outcome).Inc()
}

// copyLines writes every remote line followed by "\n", counting lines and bytes into res
func copyLines(ctx context.Context, w io.Writer, r io.Reader, res *Result) (Stage, error) {
	bw := bufio.NewWriter(w)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return StageTransfer, err
		}
		n, err := bw.WriteString(sc.Text() + "\n")
		if err != nil {
			return StageWrite, err
		}
		res.Lines++
		res.Bytes += int64(n)
	}
	if err := sc.Err(); err != nil {
		return StageTransfer, err
	}
	if err := bw.Flush(); err != nil {
		return StageWrite, err
	}
	return "", nil
}

// FetchAll fetches specs one after another and returns every result, failed ones included
func (f *IndexFetcher) FetchAll(ctx context.Context, specs []models.RemoteFileSpec) ([]*Result, error) {
	results := make([]*Result, 0, len(specs))
	var errs []error
	for _, spec := range specs {
		res, err := f.Fetch(ctx, spec)
		results = append(results, res)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}
