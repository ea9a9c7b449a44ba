package service_test

import (
	"testing"
	"time"

	"github.com/godilite/activation-insights/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64 { return &v }

func TestParseFilter(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)

	cases := []struct {
		name       string
		activation string
		date       string
		want       service.Filter
		wantErr    bool
	}{
		{name: "empty means unfiltered", want: service.Filter{}},
		{name: "whitespace means unfiltered", activation: "  ", date: " ", want: service.Filter{}},
		{name: "activation only", activation: "7", want: service.Filter{ActivationID: int64p(7)}},
		{name: "display date", date: "05/03/2025", want: service.Filter{Date: "05/03/2025"}},
		{name: "iso date normalised", date: "2025-03-05", want: service.Filter{Date: "05/03/2025"}},
		{name: "both", activation: "12", date: "2024-12-31", want: service.Filter{ActivationID: int64p(12), Date: "31/12/2024"}},
		{name: "non-numeric activation", activation: "abc", wantErr: true},
		{name: "zero activation", activation: "0", wantErr: true},
		{name: "negative activation", activation: "-3", wantErr: true},
		{name: "impossible date", date: "31/02/2025", wantErr: true},
		{name: "unsupported layout", date: "03-05-2025", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := service.ParseFilter(tc.activation, tc.date, loc)
			if tc.wantErr {
				assert.ErrorIs(t, err, service.ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFilterCacheKey(t *testing.T) {
	assert.Equal(t, "all:all", service.Filter{}.CacheKey())
	assert.Equal(t, "7:10/03/2025", service.Filter{ActivationID: int64p(7), Date: "10/03/2025"}.CacheKey())
	assert.Equal(t, "all:10/03/2025", service.Filter{Date: "10/03/2025"}.CacheKey())
}
