package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/scheduler"
)

const sampleSnapshot = `
timezone: Europe/Rome
rules:
  - id: r-lunch
    collection_id: col-lunch
    slot: primary
    days_of_week: [1, 2, 3, 4, 5]
    start_time: "12:00"
    end_time: "15:00"
    is_active: true
  - id: r-dinner
    collection_id: col-dinner
    slot: primary
    days_of_week: [1, 2, 3, 4, 5, 6]
    start_time: "19:00:00"
    end_time: "23:00:00"
    is_active: true
  - collection_id: col-happy
    slot: overlay
    days_of_week: [5]
    start_time: "18:00"
    end_time: "20:00"
    is_active: true
`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入快照文件失败: %v", err)
	}
	return path
}

func TestDecodeSnapshot(t *testing.T) {
	snap, err := decodeSnapshot(strings.NewReader(sampleSnapshot))
	if err != nil {
		t.Fatalf("decodeSnapshot 应成功: %v", err)
	}
	if snap.Timezone != "Europe/Rome" {
		t.Errorf("期望时区 Europe/Rome，实际=%s", snap.Timezone)
	}
	if len(snap.Rules) != 3 {
		t.Fatalf("期望 3 条规则，实际=%d", len(snap.Rules))
	}
	if snap.Rules[0].StartTime != "12:00:00" {
		t.Errorf("时间应规范化为 HH:MM:SS，实际=%s", snap.Rules[0].StartTime)
	}
	if snap.Rules[2].ID != "rule-3" {
		t.Errorf("缺省 ID 应按序号生成，实际=%s", snap.Rules[2].ID)
	}
	if snap.Rules[2].Slot != scheduler.SlotOverlay {
		t.Errorf("期望 overlay，实际=%s", snap.Rules[2].Slot)
	}
}

func TestDecodeSnapshot_UnknownField(t *testing.T) {
	_, err := decodeSnapshot(strings.NewReader("rules:\n  - id: x\n    colour: red\n"))
	if err == nil {
		t.Fatal("未知字段应报错")
	}
}

func TestDecodeSnapshot_Empty(t *testing.T) {
	snap, err := decodeSnapshot(strings.NewReader(""))
	if err != nil {
		t.Fatalf("空文件应成功: %v", err)
	}
	if len(snap.Rules) != 0 {
		t.Errorf("期望 0 条规则，实际=%d", len(snap.Rules))
	}
}

func TestRun_Active(t *testing.T) {
	path := writeSnapshot(t, sampleSnapshot)
	var out bytes.Buffer

	// 周一 UTC 11:30 即罗马 12:30
	err := run([]string{"-rules", path, "-at", "2024-01-15T11:30:00Z"}, &out, scheduler.RealClock{})
	if err != nil {
		t.Fatalf("run 应成功: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "生效  规则=r-lunch 目录=col-lunch") {
		t.Errorf("主目录应为午餐，输出:\n%s", got)
	}
	if !strings.Contains(got, "overlay  无") {
		t.Errorf("周一不应有叠加目录，输出:\n%s", got)
	}
}

func TestRun_FallbackWithClock(t *testing.T) {
	path := writeSnapshot(t, sampleSnapshot)
	var out bytes.Buffer

	// 周一罗马 17:00：午餐已结束，晚餐未开始
	clock := scheduler.FixedClock{At: time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC)}
	if err := run([]string{"-rules", path, "-slot", "primary"}, &out, clock); err != nil {
		t.Fatalf("run 应成功: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "兜底  规则=r-lunch") || !strings.Contains(got, string(scheduler.StepEndedToday)) {
		t.Errorf("应兜底到今天刚结束的午餐，输出:\n%s", got)
	}
	if strings.Contains(got, "overlay") {
		t.Errorf("-slot primary 不应输出 overlay，输出:\n%s", got)
	}
}

func TestRun_Errors(t *testing.T) {
	path := writeSnapshot(t, sampleSnapshot)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"Missing Rules", []string{}, "-rules"},
		{"Bad Slot", []string{"-rules", path, "-slot", "banner"}, "无效的轨道"},
		{"Bad Timezone", []string{"-rules", path, "-tz", "Mars/Olympus"}, "无效的时区"},
		{"Bad At", []string{"-rules", path, "-at", "yesterday"}, "-at"},
		{"Missing File", []string{"-rules", filepath.Join(t.TempDir(), "none.yaml")}, "打开快照文件失败"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(tt.args, &out, scheduler.RealClock{})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("期望错误包含 %q，实际: %v", tt.wantErr, err)
			}
		})
	}
}
