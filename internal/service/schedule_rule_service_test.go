package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/dto"
	"github.com/CataloGlobe/cataloglobe-app-sub001/pkg/jwt"
	pkgerrors "github.com/CataloGlobe/cataloglobe-app-sub001/pkg/errors"
)

// ── 测试辅助 ──

var (
	owner1 = Caller{UserID: "u-owner-1", BusinessID: "biz-1", Role: jwt.RoleOwner}
	owner2 = Caller{UserID: "u-owner-2", BusinessID: "biz-2", Role: jwt.RoleOwner}
	admin  = Caller{UserID: "u-admin", Role: jwt.RoleAdmin}
)

func setupTestScheduleRuleService() (ScheduleRuleService, *testEnv) {
	env := newTestEnv()
	env.seedCatalog()
	snapshots := newSnapshotLoader(env.repo, env.cache, time.Minute, nil, zap.NewNop())
	return NewScheduleRuleService(env.repo, snapshots, zap.NewNop()), env
}

func validCreateRequest() *dto.CreateScheduleRuleRequest {
	return &dto.CreateScheduleRuleRequest{
		CollectionID: "col-dinner",
		Name:         "brunch",
		Slot:         "primary",
		DaysOfWeek:   []int{0, 6, 0},
		StartTime:    "10:30",
		EndTime:      "14:00:00",
	}
}

// ── Caller 测试 ──

func TestCaller_CanManage(t *testing.T) {
	tests := []struct {
		name   string
		caller Caller
		biz    string
		want   bool
	}{
		{"Admin Any Business", admin, "biz-9", true},
		{"Owner Own Business", owner1, "biz-1", true},
		{"Owner Other Business", owner1, "biz-2", false},
		{"Owner Without Business", Caller{Role: jwt.RoleOwner}, "", false},
		{"Unknown Role", Caller{BusinessID: "biz-1", Role: "staff"}, "biz-1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.caller.CanManage(tt.biz); got != tt.want {
				t.Errorf("期望 %v，实际 %v", tt.want, got)
			}
		})
	}
}

// ── Create 测试 ──

func TestScheduleRuleService_Create_Success(t *testing.T) {
	svc, env := setupTestScheduleRuleService()
	env.cache.data[snapshotKey("biz-1")] = []byte("[]")

	result, err := svc.Create(context.Background(), owner1, "biz-1", validCreateRequest())
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.StartTime != "10:30:00" || result.EndTime != "14:00:00" {
		t.Errorf("时间应规范化为 HH:MM:SS，实际 %s-%s", result.StartTime, result.EndTime)
	}
	if len(result.DaysOfWeek) != 2 || result.DaysOfWeek[0] != 0 || result.DaysOfWeek[1] != 6 {
		t.Errorf("days_of_week 应去重排序为 [0 6]，实际 %v", result.DaysOfWeek)
	}
	if !result.IsActive {
		t.Error("缺省 is_active 应为 true")
	}
	if result.Version != 1 {
		t.Errorf("初始 version 应为 1，实际 %d", result.Version)
	}
	if _, ok := env.cache.data[snapshotKey("biz-1")]; ok {
		t.Error("创建规则后应清除快照缓存")
	}
}

func TestScheduleRuleService_Create_Disabled(t *testing.T) {
	svc, _ := setupTestScheduleRuleService()
	req := validCreateRequest()
	off := false
	req.IsActive = &off

	result, err := svc.Create(context.Background(), admin, "biz-1", req)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.IsActive {
		t.Error("期望 is_active=false")
	}
}

func TestScheduleRuleService_Create_Errors(t *testing.T) {
	tests := []struct {
		name    string
		caller  Caller
		biz     string
		mutate  func(r *dto.CreateScheduleRuleRequest)
		wantErr error
	}{
		{"Other Owner", owner2, "biz-1", func(r *dto.CreateScheduleRuleRequest) {}, pkgerrors.ErrBusinessForbidden},
		{"Business Not Found", admin, "biz-404", func(r *dto.CreateScheduleRuleRequest) {}, ErrBusinessNotFound},
		{"Foreign Collection", owner1, "biz-1", func(r *dto.CreateScheduleRuleRequest) { r.CollectionID = "col-other" }, ErrCollectionNotFound},
		{"Missing Collection", owner1, "biz-1", func(r *dto.CreateScheduleRuleRequest) { r.CollectionID = "col-404" }, ErrCollectionNotFound},
		{"Bad Slot", owner1, "biz-1", func(r *dto.CreateScheduleRuleRequest) { r.Slot = "secondary" }, ErrInvalidSlot},
		{"Empty Days", owner1, "biz-1", func(r *dto.CreateScheduleRuleRequest) { r.DaysOfWeek = nil }, ErrInvalidDaysOfWeek},
		{"Day Out Of Range", owner1, "biz-1", func(r *dto.CreateScheduleRuleRequest) { r.DaysOfWeek = []int{1, 7} }, ErrInvalidDaysOfWeek},
		{"Bad Start", owner1, "biz-1", func(r *dto.CreateScheduleRuleRequest) { r.StartTime = "25:00" }, ErrInvalidTimeOfDay},
		{"Bad End", owner1, "biz-1", func(r *dto.CreateScheduleRuleRequest) { r.EndTime = "9:00" }, ErrInvalidTimeOfDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, env := setupTestScheduleRuleService()
			before := len(env.rules.rules)

			req := validCreateRequest()
			tt.mutate(req)
			_, err := svc.Create(context.Background(), tt.caller, tt.biz, req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
			if len(env.rules.rules) != before {
				t.Error("校验失败时不应写入规则")
			}
		})
	}
}

// ── GetByID / List 测试 ──

func TestScheduleRuleService_GetByID(t *testing.T) {
	svc, _ := setupTestScheduleRuleService()

	result, err := svc.GetByID(context.Background(), owner1, "r-lunch")
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if result.CollectionID != "col-lunch" || result.Slot != "primary" {
		t.Errorf("返回数据异常: %+v", result)
	}

	if _, err := svc.GetByID(context.Background(), owner2, "r-lunch"); !errors.Is(err, pkgerrors.ErrBusinessForbidden) {
		t.Errorf("其他商户应无权访问，实际: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), admin, "nonexistent"); !errors.Is(err, ErrScheduleRuleNotFound) {
		t.Errorf("期望 ErrScheduleRuleNotFound，实际: %v", err)
	}
}

func TestScheduleRuleService_List_FilterAndPage(t *testing.T) {
	svc, _ := setupTestScheduleRuleService()
	ctx := context.Background()

	all, total, err := svc.List(ctx, owner1, "biz-1", &dto.ScheduleRuleListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Errorf("期望 3 条规则，实际 total=%d len=%d", total, len(all))
	}

	overlay, total, _ := svc.List(ctx, owner1, "biz-1", &dto.ScheduleRuleListRequest{Slot: "overlay"})
	if total != 1 || overlay[0].ID != "r-happy" {
		t.Errorf("overlay 过滤异常: total=%d %+v", total, overlay)
	}

	page, total, _ := svc.List(ctx, owner1, "biz-1", &dto.ScheduleRuleListRequest{
		PaginationRequest: dto.PaginationRequest{Page: 2, PageSize: 2},
	})
	if total != 3 || len(page) != 1 {
		t.Errorf("第 2 页应有 1 条，实际 total=%d len=%d", total, len(page))
	}

	if _, _, err := svc.List(ctx, owner2, "biz-1", &dto.ScheduleRuleListRequest{}); !errors.Is(err, pkgerrors.ErrBusinessForbidden) {
		t.Errorf("期望 ErrBusinessForbidden，实际: %v", err)
	}
}

// ── Update 测试 ──

func TestScheduleRuleService_Update_Success(t *testing.T) {
	svc, env := setupTestScheduleRuleService()
	env.cache.data[snapshotKey("biz-1")] = []byte("[]")

	end := "16:00"
	off := false
	result, err := svc.Update(context.Background(), owner1, "r-lunch", &dto.UpdateScheduleRuleRequest{
		Version:    1,
		EndTime:    &end,
		DaysOfWeek: []int{5, 1, 1},
		IsActive:   &off,
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.EndTime != "16:00:00" {
		t.Errorf("期望 end_time=16:00:00，实际 %s", result.EndTime)
	}
	if len(result.DaysOfWeek) != 2 || result.DaysOfWeek[0] != 1 {
		t.Errorf("期望 days=[1 5]，实际 %v", result.DaysOfWeek)
	}
	if result.IsActive {
		t.Error("期望 is_active=false")
	}
	if result.Version != 2 {
		t.Errorf("期望 version=2，实际 %d", result.Version)
	}
	if result.StartTime != "12:00:00" {
		t.Error("未提供的字段不应被修改")
	}
	if env.cache.deletes != 1 {
		t.Errorf("更新后应清除一次缓存，实际 %d", env.cache.deletes)
	}
}

func TestScheduleRuleService_Update_StaleVersion(t *testing.T) {
	svc, env := setupTestScheduleRuleService()

	name := "late lunch"
	_, err := svc.Update(context.Background(), owner1, "r-lunch", &dto.UpdateScheduleRuleRequest{Version: 7, Name: &name})
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
	if env.rules.rules["r-lunch"].Name != "" {
		t.Error("版本冲突时不应修改规则")
	}
}

func TestScheduleRuleService_Update_ForeignCollection(t *testing.T) {
	svc, _ := setupTestScheduleRuleService()

	col := "col-other"
	_, err := svc.Update(context.Background(), admin, "r-lunch", &dto.UpdateScheduleRuleRequest{Version: 1, CollectionID: &col})
	if !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("期望 ErrCollectionNotFound，实际: %v", err)
	}
}

func TestScheduleRuleService_Update_InvalidFields(t *testing.T) {
	svc, _ := setupTestScheduleRuleService()
	ctx := context.Background()

	slot := "sidebar"
	if _, err := svc.Update(ctx, owner1, "r-lunch", &dto.UpdateScheduleRuleRequest{Version: 1, Slot: &slot}); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("期望 ErrInvalidSlot，实际: %v", err)
	}
	start := "12:00:00.5"
	if _, err := svc.Update(ctx, owner1, "r-lunch", &dto.UpdateScheduleRuleRequest{Version: 1, StartTime: &start}); !errors.Is(err, ErrInvalidTimeOfDay) {
		t.Errorf("期望 ErrInvalidTimeOfDay，实际: %v", err)
	}
	if _, err := svc.Update(ctx, owner1, "r-lunch", &dto.UpdateScheduleRuleRequest{Version: 1, DaysOfWeek: []int{-1}}); !errors.Is(err, ErrInvalidDaysOfWeek) {
		t.Errorf("期望 ErrInvalidDaysOfWeek，实际: %v", err)
	}
}

// ── Delete 测试 ──

func TestScheduleRuleService_Delete(t *testing.T) {
	svc, env := setupTestScheduleRuleService()
	ctx := context.Background()

	if err := svc.Delete(ctx, owner2, "r-lunch"); !errors.Is(err, pkgerrors.ErrBusinessForbidden) {
		t.Errorf("期望 ErrBusinessForbidden，实际: %v", err)
	}
	if err := svc.Delete(ctx, owner1, "r-lunch"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, ok := env.rules.rules["r-lunch"]; ok {
		t.Error("规则应已删除")
	}
	if env.cache.deletes != 1 {
		t.Errorf("删除后应清除缓存，实际 %d", env.cache.deletes)
	}
	if err := svc.Delete(ctx, owner1, "r-lunch"); !errors.Is(err, ErrScheduleRuleNotFound) {
		t.Errorf("重复删除期望 ErrScheduleRuleNotFound，实际: %v", err)
	}
}
