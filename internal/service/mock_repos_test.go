package service

import (
	"context"
	"errors"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"gorm.io/gorm"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/model"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/repository"
	pkgerrors "github.com/CataloGlobe/cataloglobe-app-sub001/pkg/errors"
)

// ── Mock BusinessRepository ──

type mockBusinessRepo struct {
	businesses map[string]*model.Business
}

func newMockBusinessRepo() *mockBusinessRepo {
	return &mockBusinessRepo{businesses: make(map[string]*model.Business)}
}

func (m *mockBusinessRepo) GetByID(_ context.Context, id string) (*model.Business, error) {
	if b, ok := m.businesses[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock CollectionRepository ──

type mockCollectionRepo struct {
	collections map[string]*model.Collection
	items       map[string][]model.CollectionItem
	getErr      error // 非 nil 时 GetByID 直接返回该错误
}

func newMockCollectionRepo() *mockCollectionRepo {
	return &mockCollectionRepo{
		collections: make(map[string]*model.Collection),
		items:       make(map[string][]model.CollectionItem),
	}
}

func (m *mockCollectionRepo) GetByID(_ context.Context, id string) (*model.Collection, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if c, ok := m.collections[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCollectionRepo) ListVisibleItems(_ context.Context, collectionID string) ([]model.CollectionItem, error) {
	var result []model.CollectionItem
	for _, it := range m.items[collectionID] {
		if it.IsVisible {
			result = append(result, it)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

// ── Mock ScheduleRuleRepository ──

type mockScheduleRuleRepo struct {
	rules       map[string]*model.ScheduleRule
	nextID      int
	enabledHits int
}

func newMockScheduleRuleRepo() *mockScheduleRuleRepo {
	return &mockScheduleRuleRepo{rules: make(map[string]*model.ScheduleRule)}
}

func (m *mockScheduleRuleRepo) Create(_ context.Context, rule *model.ScheduleRule) error {
	if rule.RuleID == "" {
		m.nextID++
		rule.RuleID = "rule-" + string(rune('a'+m.nextID-1))
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	m.rules[rule.RuleID] = rule
	return nil
}

func (m *mockScheduleRuleRepo) GetByID(_ context.Context, id string) (*model.ScheduleRule, error) {
	if r, ok := m.rules[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRuleRepo) List(_ context.Context, businessID, slot string, offset, limit int) ([]model.ScheduleRule, int64, error) {
	var all []model.ScheduleRule
	for _, r := range m.rules {
		if r.BusinessID != businessID || (slot != "" && r.Slot != slot) {
			continue
		}
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].RuleID < all[j].RuleID })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.ScheduleRule{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockScheduleRuleRepo) ListEnabledByBusiness(_ context.Context, businessID string) ([]model.ScheduleRule, error) {
	m.enabledHits++
	var result []model.ScheduleRule
	for _, r := range m.rules {
		if r.BusinessID == businessID && r.IsActive {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockScheduleRuleRepo) Update(_ context.Context, rule *model.ScheduleRule) error {
	stored, ok := m.rules[rule.RuleID]
	if !ok || stored.Version != rule.Version {
		return pkgerrors.ErrOptimisticLock
	}
	rule.Version++
	cp := *rule
	m.rules[rule.RuleID] = &cp
	return nil
}

func (m *mockScheduleRuleRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.rules, id)
	return nil
}

// ── Mock SnapshotCache ──

type mockSnapshotCache struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	deletes int
	failGet bool
}

func newMockSnapshotCache() *mockSnapshotCache {
	return &mockSnapshotCache{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockSnapshotCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	if m.failGet {
		return false, errors.New("connection refused")
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *mockSnapshotCache) SetJSON(_ context.Context, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *mockSnapshotCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.deletes++
		delete(m.data, k)
	}
	return nil
}

// ── 测试夹具 ──

type testEnv struct {
	repo        *repository.Repository
	businesses  *mockBusinessRepo
	collections *mockCollectionRepo
	rules       *mockScheduleRuleRepo
	cache       *mockSnapshotCache
}

func newTestEnv() *testEnv {
	env := &testEnv{
		businesses:  newMockBusinessRepo(),
		collections: newMockCollectionRepo(),
		rules:       newMockScheduleRuleRepo(),
		cache:       newMockSnapshotCache(),
	}
	env.repo = &repository.Repository{
		Business:     env.businesses,
		Collection:   env.collections,
		ScheduleRule: env.rules,
	}
	return env
}

// seedCatalog 商户 biz-1（罗马时区）：
//   - lunch：primary 周一至周五 12:00-15:00
//   - dinner：primary 周一至周六 19:00-23:00
//   - happy：overlay 周五 18:00-20:00
func (e *testEnv) seedCatalog() {
	e.businesses.businesses["biz-1"] = &model.Business{BusinessID: "biz-1", Name: "Trattoria", Slug: "trattoria", Timezone: "Europe/Rome", IsActive: true}
	e.businesses.businesses["biz-2"] = &model.Business{BusinessID: "biz-2", Name: "Bar Sport", Slug: "bar-sport", IsActive: true}

	for _, c := range []model.Collection{
		{CollectionID: "col-lunch", BusinessID: "biz-1", Name: "Pranzo", Kind: "menu"},
		{CollectionID: "col-dinner", BusinessID: "biz-1", Name: "Cena", Kind: "menu"},
		{CollectionID: "col-happy", BusinessID: "biz-1", Name: "Aperitivo", Kind: "drinks"},
		{CollectionID: "col-other", BusinessID: "biz-2", Name: "Colazione", Kind: "menu"},
	} {
		c := c
		e.collections.collections[c.CollectionID] = &c
	}
	e.collections.items["col-lunch"] = []model.CollectionItem{
		{ItemID: "it-2", CollectionID: "col-lunch", Name: "Tiramisù", PriceCents: 650, Currency: "EUR", Position: 2, IsVisible: true},
		{ItemID: "it-1", CollectionID: "col-lunch", Name: "Carbonara", PriceCents: 1200, Currency: "EUR", Position: 1, IsVisible: true},
		{ItemID: "it-3", CollectionID: "col-lunch", Name: "Fuori menu", PriceCents: 900, Currency: "EUR", Position: 3, IsVisible: false},
	}

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range []model.ScheduleRule{
		{RuleID: "r-lunch", BusinessID: "biz-1", CollectionID: "col-lunch", Slot: "primary", DaysOfWeek: model.IntArray{1, 2, 3, 4, 5}, StartTime: "12:00:00", EndTime: "15:00:00", IsActive: true},
		{RuleID: "r-dinner", BusinessID: "biz-1", CollectionID: "col-dinner", Slot: "primary", DaysOfWeek: model.IntArray{1, 2, 3, 4, 5, 6}, StartTime: "19:00:00", EndTime: "23:00:00", IsActive: true},
		{RuleID: "r-happy", BusinessID: "biz-1", CollectionID: "col-happy", Slot: "overlay", DaysOfWeek: model.IntArray{5}, StartTime: "18:00:00", EndTime: "20:00:00", IsActive: true},
	} {
		r := r
		r.CreatedAt = created
		r.Version = 1
		e.rules.rules[r.RuleID] = &r
	}
}
