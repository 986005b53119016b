package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger 全局日誌實例（未初始化前為 Nop，方便單元測試）
	Logger  = zap.NewNop()
	LogMode string // 只宣告，不初始化

	// 定義日誌級別的顏色
	levelColors = map[zapcore.Level]string{
		zapcore.DebugLevel: "\033[36m", // 青色
		zapcore.InfoLevel:  "\033[32m", // 綠色
		zapcore.WarnLevel:  "\033[33m", // 黃色
		zapcore.ErrorLevel: "\033[31m", // 紅色
		zapcore.FatalLevel: "\033[35m", // 紫色
	}
	resetColor = "\033[0m"

	// concise 模式下仍會輸出的訊息
	conciseMessages = map[string]bool{
		"請求完成":                     true,
		"啟動應用":                     true,
		"Server exited":            true,
		"Shutting down server...": true,
	}
)

// 自定義編碼器配置
func getEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "",
		CallerKey:      "",
		MessageKey:     "msg",
		StacktraceKey:  "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// 自定義時間格式
func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05.000"))
}

// 自定義級別編碼器（添加顏色）
func customLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	color := levelColors[l]
	level := l.String()
	switch l {
	case zapcore.DebugLevel:
		level = "DBG"
	case zapcore.InfoLevel:
		level = "INF"
	case zapcore.WarnLevel:
		level = "WRN"
	case zapcore.ErrorLevel:
		level = "ERR"
	case zapcore.FatalLevel:
		level = "FAT"
	}
	enc.AppendString(color + level + resetColor)
}

// ParseLevel 將字串轉為 zap 日誌級別，無法辨識時回傳 Info
func ParseLevel(logLevel string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger 初始化日誌系統
func InitLogger(logLevel string) error {
	return InitLoggerWithDir(logLevel, "logs")
}

// InitLoggerWithDir 初始化日誌系統並指定日誌目錄；dir 為空時只輸出到 console
func InitLoggerWithDir(logLevel, dir string) error {
	level := ParseLevel(logLevel)

	// 讀取 LOG_MODE（必須在 .env 載入後）
	LogMode = os.Getenv("LOG_MODE")

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(getEncoderConfig()),
		zapcore.AddSync(os.Stdout),
		level,
	)
	cores := []zapcore.Core{consoleCore}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		logFile, err := os.OpenFile(dir+"/app.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(getEncoderConfig()),
			zapcore.AddSync(logFile),
			level,
		))
	}

	Logger = zap.New(zapcore.NewTee(cores...),
		zap.AddCallerSkip(1),
		zap.Fields(
			zap.String("service", "lifecode-recipe"),
		),
	)

	zap.ReplaceGlobals(Logger)
	return nil
}

// filterFields 過濾掉可能含有 API 金鑰的欄位
func filterFields(fields []zap.Field) []zap.Field {
	filtered := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if strings.Contains(field.Key, "api_key") && field.Type == zapcore.StringType {
			field = zap.String(field.Key, MaskAPIKey(field.String))
		}
		filtered = append(filtered, field)
	}
	return filtered
}

// LogInfo 記錄信息日誌
func LogInfo(msg string, fields ...zap.Field) {
	if LogMode == "concise" && !conciseMessages[msg] {
		return
	}
	Logger.Info(msg, filterFields(fields)...)
}

// LogError 記錄錯誤日誌
func LogError(msg string, fields ...zap.Field) {
	Logger.Error(msg, filterFields(fields)...)
}

// LogWarn 記錄警告日誌
func LogWarn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, filterFields(fields)...)
}

// LogDebug 記錄調試日誌
func LogDebug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, filterFields(fields)...)
}

// LogFatal 記錄致命錯誤日誌後結束程式
func LogFatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, filterFields(fields)...)
}

// Sync 同步日誌緩衝
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// LogCacheHit 記錄食譜記憶命中
func LogCacheHit(source, key string) {
	LogInfo("快取命中", zap.String("類型", source), zap.String("lookup_key", key))
}

// LogCacheMiss 記錄食譜記憶未命中
func LogCacheMiss(source, key string) {
	LogInfo("快取未命中", zap.String("類型", source), zap.String("lookup_key", key))
}

// LogAICall 記錄 AI 調用
func LogAICall(provider string, duration time.Duration, err error, requestID string) {
	if err != nil {
		LogError("AI 請求失敗",
			zap.String("provider", provider),
			zap.Error(err),
			zap.Duration("耗時", duration),
			zap.String("request_id", requestID),
		)
		return
	}
	LogInfo("AI 請求成功",
		zap.String("provider", provider),
		zap.Duration("耗時", duration),
		zap.String("request_id", requestID),
	)
}

// LogSKUMatch 記錄單行食材比對結果
func LogSKUMatch(line, sku string, score, price float64) {
	if sku == "" {
		LogDebug("[UNMATCHED]", zap.String("line", line), zap.Float64("score", score))
		return
	}
	LogDebug("[MATCHED]",
		zap.String("line", line),
		zap.String("sku", sku),
		zap.Float64("score", score),
		zap.Float64("unit_price", price),
	)
}
