package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"

	"github.com/rushteam/kuairec/core"
)

// trackingWriter 记录写入端错误，用于区分网络读失败与本地写失败
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}

// copyFrom 拷贝数据，读失败归为 readCode，写失败归为 IO_ERROR。
func copyFrom(dst io.Writer, src io.Reader, readCode, what string) (int64, error) {
	tw := &trackingWriter{w: dst}
	n, err := io.Copy(tw, src)
	if err == nil {
		return n, nil
	}
	if tw.err != nil {
		return n, core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeIOError, "write "+what, err)
	}
	return n, core.WrapDomainError(core.ModuleAcquire, readCode, "read "+what, err)
}

// download 把压缩包写入 w，支持 http(s) 与 file 协议。
func (a *Acquirer) download(ctx context.Context, w io.Writer) (int64, error) {
	u, err := url.Parse(a.url)
	if err != nil {
		return 0, core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeInvalidInput, "parse remote url", err)
	}
	if u.Scheme == "file" {
		return copyLocal(u.Path, w)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return 0, core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeInvalidInput, "create request", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeUnavailable, "download", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, core.NewDomainError(core.ModuleAcquire, core.ErrorCodeUnavailable,
			fmt.Sprintf("download: status=%d, body=%s", resp.StatusCode, string(body)))
	}

	n, err := copyFrom(w, resp.Body, core.ErrorCodeUnavailable, "archive")
	if err != nil {
		return n, err
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return n, core.NewDomainError(core.ModuleAcquire, core.ErrorCodeUnavailable,
			fmt.Sprintf("download truncated: got %d of %d bytes", n, resp.ContentLength))
	}
	return n, nil
}

func copyLocal(path string, w io.Writer) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeNotFound, "open local archive", err)
		}
		return 0, core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeIOError, "open local archive", err)
	}
	defer f.Close()
	return copyFrom(w, f, core.ErrorCodeIOError, "local archive")
}
