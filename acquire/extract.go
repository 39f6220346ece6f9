package acquire

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rushteam/kuairec/core"
)

// extract 把 zip 的全部内容解压到 dest，返回文件数与解压后字节数。
// 条目路径逃出 dest（绝对路径、..）时整体失败。
func extract(archivePath, dest string) (int, int64, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, 0, core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeParseError, "open zip", err)
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, 0, core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeIOError, "create "+dest, err)
	}

	var (
		files int
		total int64
	)
	for _, f := range r.File {
		target, err := entryPath(dest, f.Name)
		if err != nil {
			return 0, 0, err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return 0, 0, core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeIOError, "create "+target, err)
			}
			continue
		}
		n, err := extractFile(f, target)
		if err != nil {
			return 0, 0, err
		}
		files++
		total += n
	}
	return files, total, nil
}

func entryPath(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", core.NewDomainError(core.ModuleAcquire, core.ErrorCodeParseError,
			fmt.Sprintf("zip entry %q: absolute path", name))
	}
	target := filepath.Join(dest, name)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", core.NewDomainError(core.ModuleAcquire, core.ErrorCodeParseError,
			fmt.Sprintf("zip entry %q: escapes destination", name))
	}
	return target, nil
}

func extractFile(f *zip.File, target string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeIOError, "create "+filepath.Dir(target), err)
	}

	rc, err := f.Open()
	if err != nil {
		return 0, core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeParseError, "open zip entry "+f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeIOError, "create "+target, err)
	}
	n, err := copyFrom(out, rc, core.ErrorCodeParseError, "zip entry "+f.Name)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeIOError, "close "+target, cerr)
	}
	return n, err
}
