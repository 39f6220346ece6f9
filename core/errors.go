package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）、消息（Message）与底层原因（Err）
//   - 支持 errors.Is / errors.As 透传底层错误
//
// 使用场景：
//   - acquire：下载失败 UNAVAILABLE、压缩包损坏 PARSE_ERROR、磁盘写入 IO_ERROR
//   - table：文件缺失 NOT_FOUND、严格模式解析失败 PARSE_ERROR
//   - clean：列缺失 INVALID_INPUT、feat 字段 JSON 非法 PARSE_ERROR
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "PARSE_ERROR"）
	Message string // 错误消息
	Module  string // 模块名称（如 "acquire", "table", "clean"）
	Err     error  // 底层原因，可为空
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// GetDomainError 沿错误链查找 DomainError，找不到返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层原因的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 文件或目录不存在
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效（配置、列名等）
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 远端不可用（网络错误、非 2xx）
	ErrorCodeParseError    = "PARSE_ERROR"    // 解析失败（CSV、JSON、ZIP）
	ErrorCodeIOError       = "IO_ERROR"       // 本地读写失败
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleAcquire = "acquire" // 数据集下载与解压
	ModuleTable   = "table"   // CSV 读取
	ModuleClean   = "clean"   // 数据清洗
	ModuleConfig  = "config"  // 配置
	ModuleLock    = "lock"    // 下载互斥
	ModuleExport  = "export"  // 导出
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsParseError 检查错误是否为 PARSE_ERROR
func IsParseError(err error) bool { return hasCode(err, ErrorCodeParseError) }

// IsIOError 检查错误是否为 IO_ERROR
func IsIOError(err error) bool { return hasCode(err, ErrorCodeIOError) }
