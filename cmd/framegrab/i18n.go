package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Output":        "出力",
		"Decoding":      "デコード",
		"Logging":       "ログ",

		// Root command
		"Save the first frames of a video file as PPM images": "動画ファイルの先頭フレームをPPM画像として保存",

		// Flags
		"YAML configuration file":                      "YAML設定ファイル",
		"Directory to write frame files to":            "フレームファイルの出力ディレクトリ",
		"Frame file name pattern with one %d":          "%d を1つ含むフレームファイル名のパターン",
		"Number of frames to save (0 = all)":           "保存するフレーム数（0 = すべて）",
		"Output width (0 = source width)":              "出力の幅（0 = 元の幅）",
		"Output height (0 = source height)":            "出力の高さ（0 = 元の高さ）",
		"Output run summary to file (Markdown format)": "実行サマリーをファイルに出力（Markdown形式）",
		"Decoding backend (auto, native, libav)":       "デコードバックエンド（auto, native, libav）",
		"Path to ffmpeg executable":                    "ffmpeg実行ファイルのパス",
		"Log level (debug, info, warn, error)":         "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                      "全てのログ出力を抑制",
	})
}
