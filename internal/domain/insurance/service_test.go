package insurance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type mockInsuranceRepo struct {
	insurances map[uuid.UUID]*Insurance
}

func newMockInsuranceRepo() *mockInsuranceRepo {
	return &mockInsuranceRepo{insurances: make(map[uuid.UUID]*Insurance)}
}

func (m *mockInsuranceRepo) Create(_ context.Context, ins *Insurance) error {
	ins.ID = uuid.New()
	m.insurances[ins.ID] = ins
	return nil
}

func (m *mockInsuranceRepo) GetByID(_ context.Context, id uuid.UUID) (*Insurance, error) {
	ins, ok := m.insurances[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ins, nil
}

func (m *mockInsuranceRepo) Update(_ context.Context, ins *Insurance) error {
	m.insurances[ins.ID] = ins
	return nil
}

func (m *mockInsuranceRepo) List(_ context.Context, voided bool, _, _ int) ([]*Insurance, int, error) {
	var items []*Insurance
	for _, ins := range m.insurances {
		if ins.Voided == voided {
			items = append(items, ins)
		}
	}
	return items, len(items), nil
}

func (m *mockInsuranceRepo) AddRate(_ context.Context, r *InsuranceRate) error {
	r.ID = uuid.New()
	ins, ok := m.insurances[r.InsuranceID]
	if !ok {
		return ErrNotFound
	}
	ins.Rates = append(ins.Rates, r)
	return nil
}

func (m *mockInsuranceRepo) UpdateRate(_ context.Context, r *InsuranceRate) error {
	ins, ok := m.insurances[r.InsuranceID]
	if !ok {
		return ErrNotFound
	}
	for i, existing := range ins.Rates {
		if existing.ID == r.ID {
			ins.Rates[i] = r
			return nil
		}
	}
	return ErrNotFound
}

type mockThirdPartyRepo struct {
	parties map[uuid.UUID]*ThirdParty
}

func newMockThirdPartyRepo() *mockThirdPartyRepo {
	return &mockThirdPartyRepo{parties: make(map[uuid.UUID]*ThirdParty)}
}

func (m *mockThirdPartyRepo) Create(_ context.Context, tp *ThirdParty) error {
	tp.ID = uuid.New()
	m.parties[tp.ID] = tp
	return nil
}

func (m *mockThirdPartyRepo) GetByID(_ context.Context, id uuid.UUID) (*ThirdParty, error) {
	tp, ok := m.parties[id]
	if !ok {
		return nil, ErrNotFound
	}
	return tp, nil
}

func (m *mockThirdPartyRepo) Update(_ context.Context, tp *ThirdParty) error {
	m.parties[tp.ID] = tp
	return nil
}

func (m *mockThirdPartyRepo) List(_ context.Context, _, _ int) ([]*ThirdParty, int, error) {
	var items []*ThirdParty
	for _, tp := range m.parties {
		items = append(items, tp)
	}
	return items, len(items), nil
}

func newTestService() (*Service, *mockInsuranceRepo, *mockThirdPartyRepo) {
	ins := newMockInsuranceRepo()
	tp := newMockThirdPartyRepo()
	return NewService(ins, tp), ins, tp
}

func TestCreateInsurance(t *testing.T) {
	svc, _, _ := newTestService()
	ins := &Insurance{Name: "RAMA", Category: CategoryBase}
	r := &InsuranceRate{Rate: decimal.RequireFromString("85"), StartDate: time.Now()}
	if err := svc.CreateInsurance(context.Background(), ins, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ins.ID == uuid.Nil {
		t.Error("expected insurance to be assigned an ID")
	}
	if len(ins.Rates) != 1 {
		t.Fatalf("expected 1 rate, got %d", len(ins.Rates))
	}
	if r.InsuranceID != ins.ID {
		t.Error("expected initial rate to be linked to the insurance")
	}
}

func TestCreateInsurance_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.CreateInsurance(context.Background(), &Insurance{Category: CategoryBase}, nil); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.CreateInsurance(context.Background(), &Insurance{Name: "RAMA"}, nil); err == nil {
		t.Error("expected error for missing category")
	}
	bad := &InsuranceRate{Rate: decimal.RequireFromString("120"), StartDate: time.Now()}
	if err := svc.CreateInsurance(context.Background(), &Insurance{Name: "RAMA", Category: CategoryBase}, bad); err == nil {
		t.Error("expected error for out-of-range rate")
	}
}

func TestSetRate_RetiresPredecessor(t *testing.T) {
	svc, _, _ := newTestService()
	actor := uuid.New()

	ins := &Insurance{Name: "MMI", Category: CategoryBase}
	first := &InsuranceRate{Rate: decimal.RequireFromString("90"), StartDate: date(2020, 1, 1)}
	if err := svc.CreateInsurance(context.Background(), ins, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := &InsuranceRate{Rate: decimal.RequireFromString("85"), StartDate: date(2023, 1, 1)}
	if err := svc.SetRate(context.Background(), actor, ins.ID, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.Retired {
		t.Error("expected predecessor rate to be retired")
	}
	if first.RetiredBy == nil || *first.RetiredBy != actor {
		t.Error("expected predecessor to record the retiring actor")
	}
	if first.EndDate == nil || !first.EndDate.Equal(second.StartDate) {
		t.Error("expected predecessor end date to match successor start date")
	}
	if first.RetireReason == nil || !strings.Contains(*first.RetireReason, "85") {
		t.Errorf("expected retire reason to name the successor rate, got %v", first.RetireReason)
	}

	current, err := svc.CurrentRate(context.Background(), ins.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !current.Rate.Equal(second.Rate) {
		t.Errorf("expected current rate 85, got %s", current.Rate)
	}
}

func TestSetRate_FlatFeeInReason(t *testing.T) {
	svc, _, _ := newTestService()
	actor := uuid.New()

	ins := &Insurance{Name: "MUSA", Category: CategoryMutuelle}
	first := &InsuranceRate{Rate: decimal.RequireFromString("90"), StartDate: date(2020, 1, 1)}
	if err := svc.CreateInsurance(context.Background(), ins, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fee := decimal.RequireFromString("200")
	second := &InsuranceRate{Rate: decimal.RequireFromString("85"), FlatFee: &fee, StartDate: date(2023, 1, 1)}
	if err := svc.SetRate(context.Background(), actor, ins.ID, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.RetireReason == nil || !strings.Contains(*first.RetireReason, "flat fee 200") {
		t.Errorf("expected retire reason to mention the flat fee, got %v", first.RetireReason)
	}
}

func TestRetireRate_DefaultReason(t *testing.T) {
	svc, _, _ := newTestService()
	actor := uuid.New()

	ins := &Insurance{Name: "RAMA", Category: CategoryBase}
	r := &InsuranceRate{Rate: decimal.RequireFromString("85"), StartDate: date(2020, 1, 1)}
	if err := svc.CreateInsurance(context.Background(), ins, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RetireRate(context.Background(), actor, ins.ID, r.ID, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.RetireReason == nil || *r.RetireReason != "no reason provided" {
		t.Errorf("expected default retire reason, got %v", r.RetireReason)
	}
}

func TestVoidInsurance_CascadesToRates(t *testing.T) {
	svc, _, _ := newTestService()
	actor := uuid.New()

	ins := &Insurance{Name: "CORAR", Category: CategoryPrivate}
	r := &InsuranceRate{Rate: decimal.RequireFromString("100"), StartDate: date(2020, 1, 1)}
	if err := svc.CreateInsurance(context.Background(), ins, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.VoidInsurance(context.Background(), actor, ins.ID, "duplicate entry"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ins.Voided {
		t.Error("expected insurance to be voided")
	}
	if !r.Retired {
		t.Error("expected active rate to be retired by the void cascade")
	}
	if r.RetireReason == nil || !strings.Contains(*r.RetireReason, "CORAR") {
		t.Errorf("expected cascade reason to name the insurance, got %v", r.RetireReason)
	}

	// Voiding again is a no-op.
	if err := svc.VoidInsurance(context.Background(), actor, ins.ID, "again"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *ins.VoidReason != "duplicate entry" {
		t.Errorf("expected original void reason to be preserved, got %s", *ins.VoidReason)
	}
}

func TestVoidThirdParty(t *testing.T) {
	svc, _, _ := newTestService()
	actor := uuid.New()

	tp := &ThirdParty{Name: "Military Medical Fund", Rate: decimal.RequireFromString("10")}
	if err := svc.CreateThirdParty(context.Background(), tp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.VoidThirdParty(context.Background(), actor, tp.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tp.Voided {
		t.Error("expected third party to be voided")
	}
	if tp.VoidReason == nil || !strings.Contains(*tp.VoidReason, "Military Medical Fund") {
		t.Errorf("expected void reason to name the third party, got %v", tp.VoidReason)
	}
}

func TestCreateThirdParty_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.CreateThirdParty(context.Background(), &ThirdParty{Rate: decimal.RequireFromString("10")}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.CreateThirdParty(context.Background(), &ThirdParty{Name: "X", Rate: decimal.RequireFromString("-1")}); err == nil {
		t.Error("expected error for negative rate")
	}
}
