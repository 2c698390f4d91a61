package pricing

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"print-area-pricing/metrics"
	"print-area-pricing/models"
)

func TestClassifySize_Boundaries(t *testing.T) {
	cases := []struct {
		w, h float64
		want string
	}{
		{100, 100, models.Size10x10},
		{0, 0, models.Size10x10},
		{100.01, 100, models.SizeA4},
		{100, 100.01, models.SizeA4},
		{210, 297, models.SizeA4},
		{210.01, 297, models.SizeA3},
		{210, 297.01, models.SizeA3},
		{297, 210, models.SizeA3},
		{1000, 1000, models.SizeA3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifySize(tc.w, tc.h), "%vx%v", tc.w, tc.h)
	}
}

func TestParseMethod(t *testing.T) {
	cases := map[string]string{
		"dtf":             models.MethodDTF,
		" DTG ":           models.MethodDTG,
		"Screen Printing": models.MethodScreenPrinting,
		"screen-printing": models.MethodScreenPrinting,
		"embroidery":      models.MethodEmbroidery,
		"Appliqué":        models.MethodApplique,
	}
	for in, want := range cases {
		got, err := ParseMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseMethod("sublimation")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestRecommend_AlwaysTransfer(t *testing.T) {
	for n := 0; n <= 10; n++ {
		rec := Recommend(n)
		assert.Equal(t, models.MethodDTF, rec.Method)
		assert.NotEmpty(t, rec.Reason)
	}
	assert.Equal(t, ReasonDefault, Recommend(3).Reason)
	assert.Equal(t, ReasonManyColors, Recommend(4).Reason)
}

func TestPolicy_TransferPriceIgnoresColorsAndQuantity(t *testing.T) {
	p := NewPolicy(DefaultConfig(), zap.NewNop(), nil)

	for _, method := range []string{models.MethodDTF, models.MethodDTG} {
		for _, size := range models.AllSizes {
			want := p.TransferPrice(method, size)
			assert.Positive(t, want)
			for _, colorCount := range []int{1, 2, 7} {
				for _, quantity := range []int{1, 100, 1000} {
					assert.Equal(t, want, p.Price(method, size, colorCount, quantity))
				}
			}
		}
	}
	assert.Equal(t, int64(4000), p.TransferPrice(models.MethodDTF, models.Size10x10))
	assert.Equal(t, int64(12000), p.TransferPrice(models.MethodDTG, models.SizeA3))
}

func TestPolicy_BulkPriceIsLinearInColors(t *testing.T) {
	p := NewPolicy(DefaultConfig(), zap.NewNop(), nil)

	for _, method := range []string{models.MethodScreenPrinting, models.MethodEmbroidery, models.MethodApplique} {
		for _, size := range models.AllSizes {
			for _, quantity := range []int{1, 100, 150} {
				one := p.BulkPrice(method, size, 1, quantity)
				for c := 1; c <= 6; c++ {
					assert.Equal(t, one*int64(c), p.BulkPrice(method, size, c, quantity))
				}
			}
		}
	}
	assert.Zero(t, p.BulkPrice(models.MethodEmbroidery, models.SizeA4, 0, 150))
}

func TestPolicy_BulkTiers(t *testing.T) {
	p := NewPolicy(DefaultConfig(), zap.NewNop(), nil)

	assert.Equal(t, int64(80000), p.BulkPricePerColor(models.MethodEmbroidery, models.SizeA4, 1))
	assert.Equal(t, int64(80000), p.BulkPricePerColor(models.MethodEmbroidery, models.SizeA4, 100))
	assert.Equal(t, int64(80800), p.BulkPricePerColor(models.MethodEmbroidery, models.SizeA4, 101))
	assert.Equal(t, int64(120000), p.BulkPricePerColor(models.MethodEmbroidery, models.SizeA4, 150))
	assert.Equal(t, int64(480000), p.Price(models.MethodEmbroidery, models.SizeA4, 4, 150))
	assert.Equal(t, int64(60000+400*500), p.BulkPricePerColor(models.MethodScreenPrinting, models.Size10x10, 500))
}

func TestPolicy_ConfigGapLogsAndPricesZero(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	m := metrics.New(prometheus.NewRegistry())
	cfg := DefaultConfig()
	delete(cfg.DTF.Sizes, models.SizeA3)
	delete(cfg.Applique.Sizes, models.SizeA4)
	p := NewPolicy(cfg, zap.New(core), m)

	assert.Zero(t, p.TransferPrice(models.MethodDTF, models.SizeA3))
	assert.Zero(t, p.BulkPrice(models.MethodApplique, models.SizeA4, 2, 10))
	assert.Zero(t, p.TransferPrice(models.MethodEmbroidery, models.SizeA4))
	assert.Zero(t, p.Price("unknown", models.SizeA4, 1, 1))

	assert.Equal(t, 4, logs.FilterMessage("pricing config gap, pricing at 0").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigGaps.WithLabelValues(models.MethodDTF, models.SizeA3)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigGaps.WithLabelValues(models.MethodApplique, models.SizeA4)))
	assert.Error(t, p.Validate())
}

func TestNewPolicy_NilConfigUsesDefaults(t *testing.T) {
	p := NewPolicy(nil, nil, nil)
	assert.Equal(t, DefaultCurrency, p.Currency())
	assert.NoError(t, p.Validate())
}
