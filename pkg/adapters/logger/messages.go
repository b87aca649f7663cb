package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Programs
		"Usage: %s":                     "使い方: %s",
		"All Done.":                     "すべて完了しました。",
		"Summary written to %s":         "サマリーを %s に書き出しました",
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",

		// Pipeline driver
		"Input %s: stream #%d, %s, %s, %dx%d":          "入力 %s: ストリーム #%d, %s, %s, %dx%d",
		"Pipeline state: %s":                           "パイプライン状態: %s",
		"Pipeline finished: %d frames from %d packets": "パイプライン完了: %[2]d パケットから %[1]d フレーム",
		"Skipping packet %d: %s":                       "パケット %d をスキップ: %s",
		"Skipping undecodable frame: %s":               "デコードできないフレームをスキップ: %s",

		// Sinks
		"Saving frame %d to disk... [Done]": "フレーム %d をディスクに保存中... [完了]",
		"Opening window %q (%dx%d)":         "ウィンドウ %q を開いています (%dx%d)",
		"SDL texture ready (%dx%d)":         "SDL テクスチャ準備完了 (%dx%d)",
		"Quit requested":                    "終了が要求されました",

		// Decoders
		"Using %s backend for %s":    "%[2]s に %[1]s バックエンドを使用します",
		"Using %s decoder for %s":    "%[2]s に %[1]s デコーダーを使用します",
		"Starting ffmpeg: %s":        "ffmpeg を起動: %s",
		"ffmpeg exited: %s":          "ffmpeg が終了しました: %s",
		"Decoder produced %d frames": "デコーダーが %d フレームを出力しました",

		// Errors
		"Failed to start pipeline: %s": "パイプラインの開始に失敗しました: %s",
		"Pipeline aborted: %s":         "パイプラインが中断されました: %s",
		"Failed to load config: %s":    "設定の読み込みに失敗しました: %s",
		"Failed to write summary: %s":  "サマリーの書き込みに失敗しました: %s",
	})
}
