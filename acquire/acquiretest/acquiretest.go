// Package acquiretest 提供测试用的数据集压缩包与 HTTP 服务。
package acquiretest

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"sync/atomic"
	"testing"
)

// DataPrefix 是压缩包内 CSV 所在目录，与默认 data_subdir 一致
const DataPrefix = "KuaiRec 2.0/data"

// Archive 把 files（压缩包内路径 -> 内容）打成 zip。
func Archive(t testing.TB, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// DataFiles 把 CSV 文件名映射到 DataPrefix 下。
func DataFiles(csv map[string]string) map[string]string {
	out := make(map[string]string, len(csv))
	for name, content := range csv {
		out[path.Join(DataPrefix, name)] = content
	}
	return out
}

// Server 是返回固定内容的 HTTP 服务，记录请求次数。
type Server struct {
	*httptest.Server
	hits atomic.Int64
}

// NewServer 启动服务；status 非 200 时返回 body 作为错误内容。测试结束时自动关闭。
func NewServer(t testing.TB, status int, body []byte) *Server {
	t.Helper()
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Content-Type", "application/zip")
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

// Hits 返回请求次数。
func (s *Server) Hits() int64 { return s.hits.Load() }

// ArchiveURL 返回压缩包地址。
func (s *Server) ArchiveURL() string { return s.Server.URL + "/KuaiRec.zip" }
