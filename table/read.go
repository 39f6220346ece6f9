// Package table 负责把数据集中的 CSV 文件读入 core.Table。
//
// 每个数据源显式指定解析模式：
//   - strict：任一行格式错误（列数不符、引号错误）整体失败
//   - tolerant：跳过格式错误的行，列数不足的行以空值补齐
package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/rushteam/kuairec/core"
)

// NullTokens 是被视为空值的单元格文本，与 pandas 默认的缺失值识别保持一致。
var NullTokens = []string{
	"", "NA", "N/A", "n/a", "NaN", "nan", "-NaN", "-nan",
	"null", "NULL", "None", "<NA>", "#N/A",
}

func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(NullTokens),
	}
}

// Read 读取 path 指向的 CSV 文件。文件不存在返回 NOT_FOUND，解析失败返回 PARSE_ERROR。
func Read(name core.TableName, path string, mode core.ParseMode) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.WrapDomainError(core.ModuleTable, core.ErrorCodeNotFound,
				fmt.Sprintf("%s: file not found", name), err)
		}
		return nil, core.WrapDomainError(core.ModuleTable, core.ErrorCodeIOError,
			fmt.Sprintf("%s: open", name), err)
	}
	defer f.Close()

	return Parse(name, bufio.NewReaderSize(f, 1<<20), mode)
}

// Parse 按 mode 从 r 解析 CSV，首行为表头。只有表头的文件得到零行的表，各列为文本类型。
func Parse(name core.TableName, r io.Reader, mode core.ParseMode) (*core.Table, error) {
	var (
		records [][]string
		skipped int
		err     error
	)
	switch mode {
	case core.ParseStrict:
		records, err = readStrict(r)
	case core.ParseTolerant:
		records, skipped, err = readTolerant(r)
	default:
		return nil, core.NewDomainError(core.ModuleTable, core.ErrorCodeInvalidInput,
			fmt.Sprintf("%s: unknown parse mode %q", name, mode))
	}
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleTable, core.ErrorCodeParseError,
			fmt.Sprintf("%s: parse csv", name), err)
	}

	df, err := load(records)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleTable, core.ErrorCodeParseError,
			fmt.Sprintf("%s: load records", name), err)
	}
	t := core.NewTable(name, df)
	t.Skipped = skipped
	return t, nil
}

// load 把含表头的记录转为 DataFrame；gota 不接受零行数据，此时按表头构造空表。
func load(records [][]string) (dataframe.DataFrame, error) {
	if len(records) > 1 {
		df := dataframe.LoadRecords(records, loadOptions()...)
		return df, df.Err
	}
	header := records[0]
	cols := make([]series.Series, len(header))
	for i, h := range header {
		cols[i] = series.New([]string{}, series.String, h)
	}
	df := dataframe.New(cols...)
	return df, df.Err
}

// readStrict 读取所有记录（含表头），任一行列数与表头不同或引号错误即失败。
func readStrict(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	return records, nil
}

// readTolerant 读取所有记录（含表头）。多于表头列数或引号错误的行被跳过，少于表头列数的行补空值。
// 只有表头本身无法读取时返回错误。
func readTolerant(r io.Reader) ([][]string, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, 0, fmt.Errorf("empty file")
		}
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	records := [][]string{header}
	skipped := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return nil, 0, err
		}
		switch {
		case len(rec) > len(header):
			skipped++
			continue
		case len(rec) < len(header):
			padded := make([]string, len(header))
			copy(padded, rec)
			rec = padded
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}
