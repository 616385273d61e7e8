package repository

import (
	"encoding/json"
)

// jsonRaw 扫描出的 JSONB 字节复制一份（driver 可能复用底层缓冲区）；NULL 返回 nil
func jsonRaw(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// jsonOrNull 空值写成 SQL NULL
func jsonOrNull(v json.RawMessage) any {
	if len(v) == 0 {
		return nil
	}
	return string(v)
}
