//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/model"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/repository"
	pkgerrors "github.com/CataloGlobe/cataloglobe-app-sub001/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=cataloglobe_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	err = testDB.AutoMigrate(
		&model.Business{},
		&model.Collection{},
		&model.CollectionItem{},
		&model.ScheduleRule{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// setupTestData 创建商户与目录并返回清理函数
func setupTestData(t *testing.T) (biz *model.Business, col *model.Collection, cleanup func()) {
	t.Helper()
	ctx := context.Background()

	biz = &model.Business{Name: "Trattoria", Slug: fmt.Sprintf("trattoria-%s", t.Name()), Timezone: "Europe/Rome", IsActive: true}
	if err := testDB.WithContext(ctx).Create(biz).Error; err != nil {
		t.Fatalf("创建商户失败: %v", err)
	}
	col = &model.Collection{BusinessID: biz.BusinessID, Name: "Pranzo", Kind: "menu"}
	if err := testDB.WithContext(ctx).Create(col).Error; err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}

	cleanup = func() {
		testDB.Unscoped().Where("business_id = ?", biz.BusinessID).Delete(&model.ScheduleRule{})
		testDB.Unscoped().Where("collection_id = ?", col.CollectionID).Delete(&model.CollectionItem{})
		testDB.Unscoped().Where("collection_id = ?", col.CollectionID).Delete(&model.Collection{})
		testDB.Unscoped().Where("business_id = ?", biz.BusinessID).Delete(&model.Business{})
	}
	return biz, col, cleanup
}

func newRule(biz *model.Business, col *model.Collection, start, end string, active bool) *model.ScheduleRule {
	return &model.ScheduleRule{
		BusinessID:   biz.BusinessID,
		CollectionID: col.CollectionID,
		Name:         "pranzo",
		Slot:         "primary",
		DaysOfWeek:   model.IntArray{1, 2, 3, 4, 5},
		StartTime:    model.TimeOfDay(start),
		EndTime:      model.TimeOfDay(end),
		IsActive:     active,
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Round Trip
// ═══════════════════════════════════════════════════════════

func TestScheduleRule_RoundTrip(t *testing.T) {
	biz, col, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	rule := newRule(biz, col, "12:00:00", "15:00:00", true)
	if err := repo.ScheduleRule.Create(ctx, rule); err != nil {
		t.Fatalf("创建规则失败: %v", err)
	}

	got, err := repo.ScheduleRule.GetByID(ctx, rule.RuleID)
	if err != nil {
		t.Fatalf("查询规则失败: %v", err)
	}
	if got.StartTime != "12:00:00" || got.EndTime != "15:00:00" {
		t.Errorf("时间读取异常: %s-%s", got.StartTime, got.EndTime)
	}
	if len(got.DaysOfWeek) != 5 || got.DaysOfWeek[0] != 1 {
		t.Errorf("days_of_week 读取异常: %v", got.DaysOfWeek)
	}
	if got.Version != 1 {
		t.Errorf("初始 version 应为 1，得到: %d", got.Version)
	}
}

func TestScheduleRule_ListEnabledByBusiness(t *testing.T) {
	biz, col, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	_ = repo.ScheduleRule.Create(ctx, newRule(biz, col, "08:00:00", "11:00:00", true))
	_ = repo.ScheduleRule.Create(ctx, newRule(biz, col, "12:00:00", "15:00:00", false))
	deleted := newRule(biz, col, "19:00:00", "23:00:00", true)
	_ = repo.ScheduleRule.Create(ctx, deleted)
	if err := repo.ScheduleRule.Delete(ctx, deleted.RuleID, biz.BusinessID); err != nil {
		t.Fatalf("软删除失败: %v", err)
	}

	rules, err := repo.ScheduleRule.ListEnabledByBusiness(ctx, biz.BusinessID)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("期望仅 1 条启用且未删除的规则，得到: %d", len(rules))
	}

	all, total, err := repo.ScheduleRule.List(ctx, biz.BusinessID, "primary", 0, 10)
	if err != nil {
		t.Fatalf("分页查询失败: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("期望 2 条未删除规则，得到 total=%d len=%d", total, len(all))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_ScheduleRule_ConflictDetected(t *testing.T) {
	biz, col, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	rule := newRule(biz, col, "12:00:00", "15:00:00", true)
	if err := repo.ScheduleRule.Create(ctx, rule); err != nil {
		t.Fatalf("创建规则失败: %v", err)
	}

	// 模拟并发：获取两份副本
	copy1, _ := repo.ScheduleRule.GetByID(ctx, rule.RuleID)
	copy2, _ := repo.ScheduleRule.GetByID(ctx, rule.RuleID)

	copy1.EndTime = "16:00:00"
	if err := repo.ScheduleRule.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	copy2.IsActive = false
	err := repo.ScheduleRule.Update(ctx, copy2)
	if err != pkgerrors.ErrOptimisticLock {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}

	final, _ := repo.ScheduleRule.GetByID(ctx, rule.RuleID)
	if final.Version != 2 || final.EndTime != "16:00:00" || !final.IsActive {
		t.Errorf("最终状态异常: version=%d end=%s active=%v", final.Version, final.EndTime, final.IsActive)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Collection Items
// ═══════════════════════════════════════════════════════════

func TestCollection_ListVisibleItems(t *testing.T) {
	_, col, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	items := []model.CollectionItem{
		{CollectionID: col.CollectionID, Name: "Tiramisù", Position: 3, IsVisible: true, Currency: "EUR"},
		{CollectionID: col.CollectionID, Name: "Carbonara", Position: 1, IsVisible: true, Currency: "EUR"},
		{CollectionID: col.CollectionID, Name: "Nascosto", Position: 2, IsVisible: false, Currency: "EUR"},
	}
	for i := range items {
		if err := testDB.Create(&items[i]).Error; err != nil {
			t.Fatalf("创建条目失败: %v", err)
		}
	}
	// is_visible 默认值为 true，零值需显式写回
	testDB.Model(&model.CollectionItem{}).Where("name = ?", "Nascosto").Update("is_visible", false)

	got, err := repo.Collection.ListVisibleItems(ctx, col.CollectionID)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Carbonara" || got[1].Name != "Tiramisù" {
		t.Errorf("期望按 position 排序的 2 个可见条目，得到: %+v", got)
	}
}
