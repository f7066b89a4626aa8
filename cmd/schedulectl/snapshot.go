package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/scheduler"
)

// snapshotFile 离线规则快照文件格式
//
//	timezone: Europe/Rome
//	rules:
//	  - id: r-lunch
//	    collection_id: col-lunch
//	    slot: primary
//	    days_of_week: [1, 2, 3, 4, 5]
//	    start_time: "12:00"
//	    end_time: "15:00"
//	    is_active: true
type snapshotFile struct {
	Timezone string           `yaml:"timezone"`
	Rules    []scheduler.Rule `yaml:"rules"`
}

func loadSnapshotFile(path string) (*snapshotFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开快照文件失败: %w", err)
	}
	defer f.Close()
	return decodeSnapshot(f)
}

// decodeSnapshot 解析快照并规范化时间字段
// 时间格式非法的规则保留原值，由解析器忽略
func decodeSnapshot(r io.Reader) (*snapshotFile, error) {
	var snap snapshotFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil && err != io.EOF {
		return nil, fmt.Errorf("解析快照文件失败: %w", err)
	}

	for i := range snap.Rules {
		rule := &snap.Rules[i]
		if rule.ID == "" {
			rule.ID = fmt.Sprintf("rule-%d", i+1)
		}
		if s, ok := scheduler.NormalizeTimeOfDay(rule.StartTime); ok {
			rule.StartTime = s
		}
		if s, ok := scheduler.NormalizeTimeOfDay(rule.EndTime); ok {
			rule.EndTime = s
		}
	}
	return &snap, nil
}
