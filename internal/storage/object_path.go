package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// 导出归档实际落盘的几种格式，未知扩展名按二进制流处理。
var exportContentTypes = map[string]string{
	"csv":  "text/csv; charset=utf-8",
	"json": "application/json",
	"txt":  "text/plain; charset=utf-8",
}

func contentTypeForExtension(ext string) string {
	if ct, ok := exportContentTypes[normalizeExtension(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// buildObjectPath 生成形如 category/2006/01/02/name.ext 的相对路径，
// 所有片段都经过清洗，日期目录使用 UTC。
func buildObjectPath(category, baseName, ext string) string {
	now := time.Now().UTC()
	category = sanitizePathSegment(category)
	if category == "" {
		category = "exports"
	}
	base := sanitizeFileBase(baseName)
	if base == "" {
		base = fmt.Sprintf("%d", now.UnixNano())
	}
	filename := base + "." + normalizeExtension(ext)
	return path.Join(category, now.Format("2006/01/02"), filename)
}

func sanitizePathSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	builder := strings.Builder{}
	builder.Grow(len(value))
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			builder.WriteByte(ch)
		case ch >= 'A' && ch <= 'Z':
			builder.WriteByte(ch + 32)
		case ch == '-', ch == '_':
			builder.WriteByte(ch)
		}
	}
	return builder.String()
}

func sanitizeFileBase(value string) string {
	replaced := strings.ReplaceAll(strings.TrimSpace(value), " ", "-")
	return strings.Trim(sanitizePathSegment(replaced), "-_")
}

func normalizeExtension(ext string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if trimmed == "" {
		return "bin"
	}
	return sanitizePathSegment(trimmed)
}

func joinPrefix(prefix, key string) string {
	cleanPrefix := trimPrefix(prefix)
	key = strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return key
	}
	return path.Join(cleanPrefix, key)
}

func trimPrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}
