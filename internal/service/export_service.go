package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/dto"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/repository"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/scheduler"
	pkgerrors "github.com/CataloGlobe/cataloglobe-app-sub001/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
//   - 当前目录导出为 Excel，与公开接口使用同一解析器
//   - 排期规则导出为 iCalendar，每条启用规则一个按周重复的 VEVENT
//   - 结果以 bytes.Buffer 返回，由 Handler 层设置响应头
type ExportService interface {
	ExportActiveCollection(ctx context.Context, caller Caller, businessID, at string) (*bytes.Buffer, string, error)
	ExportScheduleICS(ctx context.Context, caller Caller, businessID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo      *repository.Repository
	resolve   ResolveService
	snapshots *snapshotLoader
	locations *locationCache
	clock     scheduler.Clock
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(
	repo *repository.Repository,
	resolve ResolveService,
	snapshots *snapshotLoader,
	locations *locationCache,
	clock scheduler.Clock,
	logger *zap.Logger,
) ExportService {
	return &exportService{
		repo:      repo,
		resolve:   resolve,
		snapshots: snapshots,
		locations: locations,
		clock:     clock,
		logger:    logger,
	}
}

// ═══════════════════════════════════════════════════════════
// ExportActiveCollection 当前目录导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：商户名称
//   - 解析时间与时区
//   - 主目录、叠加目录各一段：目录信息 + 条目表（序号 | 名称 | 描述 | 价格 | 币种）

func (s *exportService) ExportActiveCollection(ctx context.Context, caller Caller, businessID, at string) (*bytes.Buffer, string, error) {
	if !caller.CanManage(businessID) {
		return nil, "", pkgerrors.ErrBusinessForbidden
	}

	menu, err := s.resolve.Menu(ctx, businessID, at)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "当前目录"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 28)
	f.SetColWidth(sheetName, "C", "C", 40)
	f.SetColWidth(sheetName, "D", "E", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	priceStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 2})

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 当前目录", menu.Name))
	f.MergeCell(sheetName, "A1", "E1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)
	f.SetCellValue(sheetName, "A2", "解析时间")
	f.SetCellValue(sheetName, "B2", menu.ResolvedAt)
	f.SetCellValue(sheetName, "A3", "时区")
	f.SetCellValue(sheetName, "B3", menu.Timezone)

	row := 5
	for _, sec := range []struct {
		title string
		col   *dto.ResolvedCollection
	}{
		{"主目录", menu.Primary},
		{"叠加目录", menu.Overlay},
	} {
		f.SetCellValue(sheetName, cell("A", row), sec.title)
		if sec.col == nil {
			f.SetCellValue(sheetName, cell("B", row), "无")
			row += 2
			continue
		}
		f.SetCellValue(sheetName, cell("B", row), sec.col.Name)
		f.SetCellValue(sheetName, cell("C", row), sourceLabel(sec.col))
		row++

		for i, h := range []string{"序号", "名称", "描述", "价格", "币种"} {
			f.SetCellValue(sheetName, cell(colName(i), row), h)
		}
		f.SetCellStyle(sheetName, cell("A", row), cell("E", row), headerStyle)
		row++

		for i, it := range sec.col.Items {
			f.SetCellValue(sheetName, cell("A", row), i+1)
			f.SetCellValue(sheetName, cell("B", row), it.Name)
			f.SetCellValue(sheetName, cell("C", row), it.Description)
			f.SetCellValue(sheetName, cell("D", row), float64(it.PriceCents)/100)
			f.SetCellStyle(sheetName, cell("D", row), cell("D", row), priceStyle)
			f.SetCellValue(sheetName, cell("E", row), it.Currency)
			row++
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("business_id", businessID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, fmt.Sprintf("当前目录_%s.xlsx", menu.Name), nil
}

// ═══════════════════════════════════════════════════════════
// ExportScheduleICS 排期规则导出为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每条启用规则以本周第一个生效日为 DTSTART，RRULE 按周重复：
//   - 全天规则输出 DATE 类型的全天事件
//   - 跨夜规则 DTEND 落在次日

func (s *exportService) ExportScheduleICS(ctx context.Context, caller Caller, businessID string) (*bytes.Buffer, string, error) {
	if !caller.CanManage(businessID) {
		return nil, "", pkgerrors.ErrBusinessForbidden
	}

	business, err := s.repo.Business.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrBusinessNotFound
		}
		s.logger.Error("查询商户失败", zap.String("business_id", businessID), zap.Error(err))
		return nil, "", err
	}

	rules, err := s.snapshots.Load(ctx, businessID)
	if err != nil {
		s.logger.Error("加载规则快照失败", zap.String("business_id", businessID), zap.Error(err))
		return nil, "", err
	}

	names := make(map[string]string)
	for _, r := range rules {
		if _, ok := names[r.CollectionID]; ok {
			continue
		}
		names[r.CollectionID] = r.CollectionID
		col, err := s.repo.Collection.GetByID(ctx, r.CollectionID)
		if err != nil {
			// 名称仅用于事件标题，查询失败时退回目录 ID
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Warn("查询目录名称失败", zap.String("collection_id", r.CollectionID), zap.Error(err))
			}
			continue
		}
		names[r.CollectionID] = col.Name
	}

	loc := s.locations.Get(business.Timezone)
	now := s.clock.Now().In(loc)
	body := buildScheduleCalendar(business.Name, loc, now, rules, names)

	return bytes.NewBufferString(body), fmt.Sprintf("%s.ics", business.Slug), nil
}

var icsWeekdays = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// buildScheduleCalendar 以 now 所在周（周日起）为锚点生成日历
func buildScheduleCalendar(name string, loc *time.Location, now time.Time, rules []scheduler.Rule, names map[string]string) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//CataloGlobe//Collection Schedule//EN")
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(loc.String())

	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, -int(now.Weekday()))
	addVTimezone(cal, loc, weekStart.Year())

	sorted := make([]scheduler.Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{loc.String()}}

	for _, r := range sorted {
		days, ok := weekdays(r.DaysOfWeek)
		if !r.IsActive || !ok {
			continue
		}
		start, okStart := clockOffset(r.StartTime)
		end, okEnd := clockOffset(r.EndTime)
		if !okStart || !okEnd {
			continue
		}

		byDay := make([]string, len(days))
		for i, d := range days {
			byDay[i] = icsWeekdays[d]
		}

		day := weekStart.AddDate(0, 0, days[0])
		event := cal.AddEvent(r.ID + "@cataloglobe")
		event.SetDtStampTime(now)
		event.SetSummary(fmt.Sprintf("[%s] %s", r.Slot, names[r.CollectionID]))
		event.SetDescription(fmt.Sprintf("rule_id=%s collection_id=%s", r.ID, r.CollectionID))

		startMin, endMin := int(start/time.Minute), int(end/time.Minute)
		switch {
		case startMin == endMin:
			event.SetProperty(ics.ComponentPropertyDtStart, day.Format("20060102"), ics.WithValue(string(ics.ValueDataTypeDate)))
			event.SetProperty(ics.ComponentPropertyDtEnd, day.AddDate(0, 0, 1).Format("20060102"), ics.WithValue(string(ics.ValueDataTypeDate)))
		default:
			endDay := day
			if startMin > endMin {
				endDay = day.AddDate(0, 0, 1)
			}
			event.SetProperty(ics.ComponentPropertyDtStart, atClock(day, start).Format("20060102T150405"), tzid)
			event.SetProperty(ics.ComponentPropertyDtEnd, atClock(endDay, end).Format("20060102T150405"), tzid)
		}
		event.AddProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY;BYDAY="+strings.Join(byDay, ","))
	}

	return cal.Serialize()
}

// weekdays 返回去重排序后的星期；存在越界值时整条规则无效
func weekdays(days []int) ([]int, bool) {
	var seen [7]bool
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, false
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out, len(out) > 0
}

func clockOffset(s string) (time.Duration, bool) {
	norm, ok := scheduler.NormalizeTimeOfDay(s)
	if !ok {
		return 0, false
	}
	t, err := time.Parse("15:04:05", norm)
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, true
}

func atClock(day time.Time, offset time.Duration) time.Time {
	h := int(offset / time.Hour)
	m := int(offset % time.Hour / time.Minute)
	sec := int(offset % time.Minute / time.Second)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, sec, 0, day.Location())
}

func sourceLabel(c *dto.ResolvedCollection) string {
	switch c.Source {
	case string(scheduler.SourceActive):
		return "当前生效"
	case string(scheduler.SourceFallback):
		if c.DayOffset > 0 {
			return fmt.Sprintf("兜底（%s，%d 天后）", c.FallbackStep, c.DayOffset)
		}
		return fmt.Sprintf("兜底（%s）", c.FallbackStep)
	}
	return c.Source
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
