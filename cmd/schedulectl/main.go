// schedulectl 离线解析规则快照，用于排查「为什么现在展示这个目录」
//
//	schedulectl -rules rules.yaml -at 2024-01-15T12:30:00+01:00
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/scheduler"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, scheduler.RealClock{}); err != nil {
		fmt.Fprintf(os.Stderr, "schedulectl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer, clock scheduler.Clock) error {
	fs := flag.NewFlagSet("schedulectl", flag.ContinueOnError)
	fs.SetOutput(out)
	rulesPath := fs.String("rules", "", "规则快照 YAML 文件")
	tz := fs.String("tz", "", "商户时区，覆盖快照中的 timezone")
	at := fs.String("at", "", "解析时刻（RFC3339），默认当前时间")
	slot := fs.String("slot", "", "只解析指定轨道：primary 或 overlay")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rulesPath == "" {
		return fmt.Errorf("缺少 -rules 参数")
	}

	snap, err := loadSnapshotFile(*rulesPath)
	if err != nil {
		return err
	}

	slots := []scheduler.Slot{scheduler.SlotPrimary, scheduler.SlotOverlay}
	if *slot != "" {
		s, ok := scheduler.ParseSlot(*slot)
		if !ok {
			return fmt.Errorf("无效的轨道: %s", *slot)
		}
		slots = []scheduler.Slot{s}
	}

	now, loc, err := resolveTime(clock, *at, firstNonEmpty(*tz, snap.Timezone, "UTC"))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "时刻: %s (%s, %s)\n", now.Format("2006-01-02 15:04:05"), loc, now.Weekday())
	for _, s := range slots {
		printResolution(out, scheduler.Resolve(snap.Rules, s, now))
	}
	return nil
}

func resolveTime(clock scheduler.Clock, at, tz string) (time.Time, *time.Location, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("无效的时区 %q: %w", tz, err)
	}
	now := clock.Now()
	if at != "" {
		now, err = time.Parse(time.RFC3339, at)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("无效的 -at 时间: %w", err)
		}
	}
	return now.In(loc), loc, nil
}

func printResolution(out io.Writer, res scheduler.Resolution) {
	switch res.Source {
	case scheduler.SourceActive:
		fmt.Fprintf(out, "%-8s 生效  规则=%s 目录=%s (%s-%s)\n",
			res.Slot, res.Rule.ID, res.Rule.CollectionID, res.Rule.StartTime, res.Rule.EndTime)
	case scheduler.SourceFallback:
		fmt.Fprintf(out, "%-8s 兜底  规则=%s 目录=%s 步骤=%s",
			res.Slot, res.Rule.ID, res.Rule.CollectionID, res.FallbackStep)
		if res.FallbackStep == scheduler.StepUpcomingWeek {
			fmt.Fprintf(out, " +%d天", res.DayOffset)
		}
		fmt.Fprintln(out)
	default:
		fmt.Fprintf(out, "%-8s 无\n", res.Slot)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
