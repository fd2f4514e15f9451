package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// FormatText は key=value 形式で出力します。
	FormatText = "text"
	// FormatJSON は JSON 形式で出力します。
	FormatJSON = "json"
)

// New は level と format に従う slog.Logger を生成します。w が nil なら標準エラー出力へ書き込みます。
func New(level, format string, w io.Writer) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("logging: unsupported format %q", format)
	}
}

// ParseLevel はログレベル文字列を解釈します。空文字は info として扱います。
func ParseLevel(level string) (slog.Level, error) {
	normalized := strings.TrimSpace(level)
	if normalized == "" {
		return slog.LevelInfo, nil
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(normalized)); err != nil {
		return 0, fmt.Errorf("logging: invalid level %q: %w", level, err)
	}
	return lvl, nil
}
