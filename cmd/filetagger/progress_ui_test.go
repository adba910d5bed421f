package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/filetagger/internal/config"
	"github.com/John-Robertt/filetagger/internal/domain"
)

func TestProgressUI_Lines(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf)
	// 测试内不让 keepalive 介入输出。
	ui.keepaliveThreshold = time.Hour

	ui.OnStart(config.EffectiveConfig{Path: "/archive", Author: "A", ExifToolTimeout: time.Minute})
	ui.OnPhaseDone("scan", map[string]any{"files": 2}, 10*time.Millisecond)
	ui.OnPhaseDone("plan", map[string]any{"items": 2, "unsupported": 1}, 0)
	ui.OnPhaseDone("exec", map[string]any{"total_items": 2}, 0)
	ui.OnItemDone(1, 2, "a.docx", domain.ItemResult{Status: domain.StatusSucceeded, Category: "Calvinism", Keywords: "Introduction Calvinism"}, time.Second)
	ui.OnItemDone(2, 2, "b.pdf", domain.ItemResult{Status: domain.StatusFailed, ErrorCode: domain.ErrCodeUnsupportedType, ErrorMsg: "不支持的文件类型：.pdf"}, 0)
	ui.Stop()

	out := buf.String()
	for _, want := range []string{
		"  path: /archive\n",
		"  config: (none)\n",
		"  extensions: (内置全部受支持类型)\n",
		"扫描: files=2 (0.0s)\n",
		"规划: items=2 unsupported=1 (0.0s)\n",
		"执行: total_items=2\n",
		`[1/2] a.docx OK category=Calvinism keywords="Introduction Calvinism" (1.0s)`,
		"[2/2] b.pdf FAIL unsupported_type: 不支持的文件类型：.pdf (0.0s)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
	if ui.tickerStarted {
		t.Fatalf("最后一条完成后 ticker 应已停止")
	}
}

func TestProgressUI_OnProgress(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf)
	ui.OnProgress(3, 10, 2, 1, "clip.mp4", 65*time.Second)

	if got := buf.String(); got != "进度: done=3/10 ok=2 fail=1 elapsed=00:01:05 current=clip.mp4\n" {
		t.Fatalf("进度行不对：%q", got)
	}
}

func TestTruncateAndElapsed(t *testing.T) {
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("truncate 不对：%q", got)
	}
	if got := formatElapsed(3723 * time.Second); got != "01:02:03" {
		t.Fatalf("formatElapsed 不对：%q", got)
	}
}
