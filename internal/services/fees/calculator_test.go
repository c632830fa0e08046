package fees

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

func sameResult(a, b Result) bool {
	return a.ProductPrice.Equal(b.ProductPrice) &&
		a.ShippingPrice.Equal(b.ShippingPrice) &&
		a.BuyerTotal.Equal(b.BuyerTotal) &&
		a.CommissionRate.Equal(b.CommissionRate) &&
		a.CommissionAmount.Equal(b.CommissionAmount) &&
		a.GatewayFee.Equal(b.GatewayFee) &&
		a.SellerNet.Equal(b.SellerNet) &&
		a.PlatformNet.Equal(b.PlatformNet) &&
		a.CashbackAmount.Equal(b.CashbackAmount) &&
		a.ConfigVersion == b.ConfigVersion
}

func TestComputeSettlement_Scenarios(t *testing.T) {
	cfg := DefaultConfiguration()

	tests := []struct {
		name           string
		input          Input
		wantCommission string
		wantBuyerTotal string
		wantGateway    string
		wantSellerNet  string
		wantPlatform   string
		wantCashback   string
	}{
		{
			name: "standard seller paying by instant transfer",
			input: Input{
				ProductPrice:  d("100.00"),
				ShippingPrice: d("15.00"),
				SellerTier:    TierStandard,
				PaymentMethod: MethodInstantTransfer,
			},
			wantCommission: "12.00",
			wantBuyerTotal: "115.00",
			wantGateway:    "1.1385",
			wantSellerNet:  "88.00",
			wantPlatform:   "10.8615",
			wantCashback:   "5.75",
		},
		{
			name: "premium seller paying by card",
			input: Input{
				ProductPrice:  d("100.00"),
				ShippingPrice: d("15.00"),
				SellerTier:    TierPremium,
				PaymentMethod: MethodCard,
			},
			wantCommission: "8.00",
			wantBuyerTotal: "115.00",
			wantGateway:    "4.9785",
			wantSellerNet:  "92.00",
			wantPlatform:   "3.0215",
			wantCashback:   "5.75",
		},
		{
			name: "voucher fee is flat for an expensive item",
			input: Input{
				ProductPrice:  d("1000.00"),
				ShippingPrice: d("15.00"),
				SellerTier:    TierStandard,
				PaymentMethod: MethodVoucher,
			},
			wantCommission: "120.00",
			wantBuyerTotal: "1015.00",
			wantGateway:    "3.49",
			wantSellerNet:  "880.00",
			wantPlatform:   "116.51",
			wantCashback:   "50.75",
		},
		{
			name: "voucher on a cheap item leaves the platform negative",
			input: Input{
				ProductPrice:  d("10.00"),
				ShippingPrice: d("0"),
				SellerTier:    TierStandard,
				PaymentMethod: MethodVoucher,
			},
			wantCommission: "1.20",
			wantBuyerTotal: "10.00",
			wantGateway:    "3.49",
			wantSellerNet:  "8.80",
			wantPlatform:   "-2.29",
			wantCashback:   "0.50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ComputeSettlement(tt.input, cfg)
			require.NoError(t, err)

			assertDecimal(t, tt.wantCommission, res.CommissionAmount, "commission")
			assertDecimal(t, tt.wantBuyerTotal, res.BuyerTotal, "buyer total")
			assertDecimal(t, tt.wantGateway, res.GatewayFee, "gateway fee")
			assertDecimal(t, tt.wantSellerNet, res.SellerNet, "seller net")
			assertDecimal(t, tt.wantPlatform, res.PlatformNet, "platform net")
			assertDecimal(t, tt.wantCashback, res.CashbackAmount, "cashback")
		})
	}
}

func TestComputeSettlement_VoucherFeeIgnoresAmount(t *testing.T) {
	cfg := DefaultConfiguration()
	for _, price := range []string{"1.00", "49.90", "1000.00", "25000.00"} {
		res, err := ComputeSettlement(Input{
			ProductPrice:  d(price),
			ShippingPrice: d("22.50"),
			SellerTier:    TierPremium,
			PaymentMethod: MethodVoucher,
		}, cfg)
		require.NoError(t, err)
		assertDecimal(t, "3.49", res.GatewayFee, "gateway fee for "+price)
	}
}

func TestComputeSettlement_InvalidInput(t *testing.T) {
	valid := Input{
		ProductPrice:  d("100.00"),
		ShippingPrice: d("15.00"),
		SellerTier:    TierStandard,
		PaymentMethod: MethodCard,
	}

	tests := []struct {
		name      string
		mutate    func(*Input)
		wantField string
	}{
		{"zero price", func(in *Input) { in.ProductPrice = decimal.Zero }, "product_price"},
		{"negative price", func(in *Input) { in.ProductPrice = d("-5") }, "product_price"},
		{"sub-cent price", func(in *Input) { in.ProductPrice = d("10.005") }, "product_price"},
		{"negative shipping", func(in *Input) { in.ShippingPrice = d("-0.01") }, "shipping_price"},
		{"unknown tier", func(in *Input) { in.SellerTier = "gold" }, "seller_tier"},
		{"empty tier", func(in *Input) { in.SellerTier = "" }, "seller_tier"},
		{"unknown payment method", func(in *Input) { in.PaymentMethod = "crypto" }, "payment_method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			res, err := ComputeSettlement(in, DefaultConfiguration())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var inErr *InputError
			require.ErrorAs(t, err, &inErr)
			assert.Equal(t, tt.wantField, inErr.Field)
			assert.Equal(t, Result{}, res, "no partial result on error")
		})
	}
}

func TestComputeSettlement_Properties(t *testing.T) {
	cfg := DefaultConfiguration()
	prices := []string{"0.01", "0.99", "1.00", "7.77", "19.90", "100.00", "333.33", "1234.56", "99999.99"}
	shippings := []string{"0", "0.01", "9.90", "15.00", "42.17"}
	methods := []PaymentMethod{MethodInstantTransfer, MethodCard, MethodVoucher}

	for _, p := range prices {
		for _, s := range shippings {
			for _, m := range methods {
				std, err := ComputeSettlement(Input{ProductPrice: d(p), ShippingPrice: d(s), SellerTier: TierStandard, PaymentMethod: m}, cfg)
				require.NoError(t, err)
				prem, err := ComputeSettlement(Input{ProductPrice: d(p), ShippingPrice: d(s), SellerTier: TierPremium, PaymentMethod: m}, cfg)
				require.NoError(t, err)

				for _, res := range []Result{std, prem} {
					assert.True(t, res.SellerNet.Add(res.CommissionAmount).Equal(d(p)), "seller net + commission == price")
					assert.True(t, res.BuyerTotal.Equal(d(p).Add(d(s))), "buyer total == price + shipping")
					assert.True(t, res.PlatformNet.Equal(res.CommissionAmount.Sub(res.GatewayFee)))

					rounded := res.RoundToCents()
					assert.True(t, rounded.SellerNet.Add(rounded.CommissionAmount).Equal(d(p)), "rounded seller net + commission == price")
					assert.True(t, rounded.CommissionAmount.Equal(rounded.CommissionAmount.Round(2)))
					assert.True(t, rounded.GatewayFee.Equal(rounded.GatewayFee.Round(2)))
				}
				assert.True(t, prem.CommissionAmount.LessThanOrEqual(std.CommissionAmount), "premium pays no more commission")
			}
		}
	}
}

func TestComputeSettlement_Deterministic(t *testing.T) {
	in := Input{
		ProductPrice:  d("87.43"),
		ShippingPrice: d("12.19"),
		SellerTier:    TierStandard,
		PaymentMethod: MethodCard,
	}
	cfg := DefaultConfiguration()

	first, err := ComputeSettlement(in, cfg)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := ComputeSettlement(in, cfg)
		require.NoError(t, err)
		assert.True(t, sameResult(first, again))
	}
}

func TestResult_RoundToCents(t *testing.T) {
	res, err := ComputeSettlement(Input{
		ProductPrice:  d("100.00"),
		ShippingPrice: d("15.00"),
		SellerTier:    TierStandard,
		PaymentMethod: MethodInstantTransfer,
	}, DefaultConfiguration())
	require.NoError(t, err)

	r := res.RoundToCents()
	assertDecimal(t, "12.00", r.CommissionAmount, "commission")
	assertDecimal(t, "1.14", r.GatewayFee, "gateway fee")
	assertDecimal(t, "88.00", r.SellerNet, "seller net")
	assertDecimal(t, "10.86", r.PlatformNet, "platform net")
	assertDecimal(t, "5.75", r.CashbackAmount, "cashback")

	// 0.05 * 12% = 0.006 rounds up to one cent
	small, err := ComputeSettlement(Input{
		ProductPrice:  d("0.05"),
		ShippingPrice: decimal.Zero,
		SellerTier:    TierStandard,
		PaymentMethod: MethodInstantTransfer,
	}, DefaultConfiguration())
	require.NoError(t, err)
	sr := small.RoundToCents()
	assertDecimal(t, "0.01", sr.CommissionAmount, "small commission")
	assertDecimal(t, "0.04", sr.SellerNet, "small seller net")
}

func TestConfiguration_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfiguration().Validate())

	negative := DefaultConfiguration()
	negative.CardFeeFixed = d("-0.39")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, negative.Validate(), &cfgErr)
	assert.Equal(t, "card_fee_fixed", cfgErr.Field)
	assert.ErrorIs(t, negative.Validate(), ErrInvalidConfiguration)

	inverted := DefaultConfiguration()
	inverted.CommissionRatePremium = d("15")
	require.ErrorAs(t, inverted.Validate(), &cfgErr)
	assert.Equal(t, "commission_rate_premium", cfgErr.Field)

	equal := DefaultConfiguration()
	equal.CommissionRatePremium = equal.CommissionRateStandard
	assert.NoError(t, equal.Validate())

	whole := DefaultConfiguration()
	whole.CommissionRateStandard = d("100")
	require.ErrorAs(t, whole.Validate(), &cfgErr)
	assert.Equal(t, "commission_rate_standard", cfgErr.Field)

	almost := DefaultConfiguration()
	almost.CashbackRate = d("99.9999")
	assert.NoError(t, almost.Validate())

	fine := DefaultConfiguration()
	fine.PixFeeRate = d("0.99001")
	require.ErrorAs(t, fine.Validate(), &cfgErr)
	assert.Equal(t, "pix_fee_rate", cfgErr.Field)

	// Trailing zeros are not extra precision.
	padded := DefaultConfiguration()
	padded.CardFeeFixed = d("0.390000")
	assert.NoError(t, padded.Validate())

	// Fixed fees are amounts, not rates.
	bigFee := DefaultConfiguration()
	bigFee.BoletoFeeFixed = d("150")
	assert.NoError(t, bigFee.Validate())
}

func TestComputeSettlement_RejectsInvalidConfiguration(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.CommissionRatePremium = d("20")

	in := Input{ProductPrice: d("100.00"), ShippingPrice: d("15.00"), SellerTier: TierPremium, PaymentMethod: MethodInstantTransfer}
	res, err := ComputeSettlement(in, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Equal(t, Result{}, res)

	_, err = PreviewListing(d("50.00"), TierPremium, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = QuoteWithdrawal(d("50.00"), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	calc := NewCalculator(StaticSource(cfg), nil)
	_, err = calc.Settle(in)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestParseEnums(t *testing.T) {
	tier, err := ParseSellerTier("free")
	require.NoError(t, err)
	assert.Equal(t, TierStandard, tier)

	tier, err = ParseSellerTier(" Premium ")
	require.NoError(t, err)
	assert.Equal(t, TierPremium, tier)

	_, err = ParseSellerTier("vip")
	assert.ErrorIs(t, err, ErrInvalidInput)

	for alias, want := range map[string]PaymentMethod{
		"pix":              MethodInstantTransfer,
		"instant_transfer": MethodInstantTransfer,
		"card":             MethodCard,
		"boleto":           MethodVoucher,
		"voucher":          MethodVoucher,
	} {
		got, err := ParsePaymentMethod(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, got, alias)
	}

	_, err = ParsePaymentMethod("cash")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPreviewListing(t *testing.T) {
	cfg := DefaultConfiguration()

	p, err := PreviewListing(d("59.90"), TierStandard, cfg)
	require.NoError(t, err)
	assertDecimal(t, "7.19", p.CommissionAmount, "commission") // 7.188
	assertDecimal(t, "52.71", p.SellerReceives, "seller receives")

	p, err = PreviewListing(d("59.90"), TierPremium, cfg)
	require.NoError(t, err)
	assertDecimal(t, "4.79", p.CommissionAmount, "commission") // 4.792
	assertDecimal(t, "55.11", p.SellerReceives, "seller receives")

	_, err = PreviewListing(decimal.Zero, TierStandard, cfg)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = PreviewListing(d("10"), "gold", cfg)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestQuoteWithdrawal(t *testing.T) {
	cfg := DefaultConfiguration()

	q, err := QuoteWithdrawal(d("50.00"), cfg)
	require.NoError(t, err)
	assertDecimal(t, "2.00", q.Fee, "fee")
	assertDecimal(t, "48.00", q.Net, "net")

	_, err = QuoteWithdrawal(d("2.00"), cfg)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = QuoteWithdrawal(d("-1"), cfg)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// Independent schedules used side by side must never bleed into each other.
func TestComputeSettlement_ConcurrentSchedules(t *testing.T) {
	cheap := DefaultConfiguration()
	cheap.CommissionRateStandard = d("5")
	cheap.CommissionRatePremium = d("1")
	cheap.Version = 2

	base := DefaultConfiguration()
	base.Version = 1

	in := Input{
		ProductPrice:  d("200.00"),
		ShippingPrice: d("20.00"),
		SellerTier:    TierStandard,
		PaymentMethod: MethodInstantTransfer,
	}

	var wg sync.WaitGroup
	errs := make(chan string, 200)
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			res, err := ComputeSettlement(in, base)
			if err != nil || !res.CommissionAmount.Equal(d("24")) || res.ConfigVersion != 1 {
				errs <- "base schedule leaked"
			}
		}()
		go func() {
			defer wg.Done()
			res, err := ComputeSettlement(in, cheap)
			if err != nil || !res.CommissionAmount.Equal(d("10")) || res.ConfigVersion != 2 {
				errs <- "cheap schedule leaked"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

type swappingSource struct {
	current atomic.Pointer[Configuration]
}

func (s *swappingSource) Snapshot() Configuration {
	return *s.current.Load()
}

func TestCalculator_SnapshotPerCall(t *testing.T) {
	a := DefaultConfiguration()
	a.Version = 1
	b := DefaultConfiguration()
	b.CommissionRateStandard = d("20")
	b.PixFeeRate = d("2")
	b.Version = 2

	src := &swappingSource{}
	src.current.Store(&a)
	calc := NewCalculator(src, nil)

	in := Input{
		ProductPrice:  d("100.00"),
		ShippingPrice: d("0"),
		SellerTier:    TierStandard,
		PaymentMethod: MethodInstantTransfer,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				src.current.Store(&b)
			} else {
				src.current.Store(&a)
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		res, err := calc.Settle(in)
		require.NoError(t, err)
		switch res.ConfigVersion {
		case 1:
			assertDecimal(t, "12", res.CommissionAmount, "v1 commission")
			assertDecimal(t, "0.99", res.GatewayFee, "v1 gateway")
		case 2:
			assertDecimal(t, "20", res.CommissionAmount, "v2 commission")
			assertDecimal(t, "2", res.GatewayFee, "v2 gateway")
		default:
			t.Fatalf("unexpected version %d", res.ConfigVersion)
		}
	}
	<-done
}

type recordingMetrics struct {
	mu       sync.Mutex
	settled  int
	rejected []string
}

func (m *recordingMetrics) RecordSettlement(SellerTier, PaymentMethod, Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settled++
}

func (m *recordingMetrics) RecordRejected(field string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, field)
}

func TestCalculator_Metrics(t *testing.T) {
	m := &recordingMetrics{}
	calc := NewCalculator(StaticSource(DefaultConfiguration()), m)

	_, err := calc.Settle(Input{ProductPrice: d("10"), SellerTier: TierStandard, PaymentMethod: MethodCard})
	require.NoError(t, err)
	_, err = calc.Settle(Input{ProductPrice: d("0"), SellerTier: TierStandard, PaymentMethod: MethodCard})
	require.Error(t, err)
	_, err = calc.QuoteWithdrawal(d("1"))
	require.Error(t, err)

	assert.Equal(t, 1, m.settled)
	assert.Equal(t, []string{"product_price", "amount"}, m.rejected)
}
