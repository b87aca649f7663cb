package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Display":       "表示",
		"Decoding":      "デコード",
		"Logging":       "ログ",

		// Root command
		"Show the video stream of a file in a window": "動画ファイルの映像をウィンドウに表示",

		// Flags
		"YAML configuration file":                      "YAML設定ファイル",
		"Window title":                                 "ウィンドウのタイトル",
		"Window width (0 = source width)":              "ウィンドウの幅（0 = 元の幅）",
		"Window height (0 = source height)":            "ウィンドウの高さ（0 = 元の高さ）",
		"Stop after this many frames (0 = all)":        "このフレーム数で停止（0 = すべて）",
		"Output run summary to file (Markdown format)": "実行サマリーをファイルに出力（Markdown形式）",
		"Decoding backend (auto, native, libav)":       "デコードバックエンド（auto, native, libav）",
		"Path to ffmpeg executable":                    "ffmpeg実行ファイルのパス",
		"Log level (debug, info, warn, error)":         "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                      "全てのログ出力を抑制",
	})
}
