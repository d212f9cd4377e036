package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceBuckets(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    [3]float64
		wantErr bool
	}{
		{name: "defaults", input: "10,50,100", want: [3]float64{10, 50, 100}},
		{name: "spaces and decimals", input: " 5.5 , 20, 250 ", want: [3]float64{5.5, 20, 250}},
		{name: "too few", input: "10,50", wantErr: true},
		{name: "not a number", input: "10,abc,100", wantErr: true},
		{name: "not increasing", input: "10,10,100", wantErr: true},
		{name: "negative", input: "-1,50,100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePriceBuckets(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CATALOG_PRICE_BUCKETS", "20,80,200")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("PORTAL_TIMEOUT", "3s")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, [3]float64{20, 80, 200}, cfg.Catalog.PriceBuckets)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3*time.Second, cfg.Portal.Timeout)
	assert.Equal(t, "portal_session", cfg.Session.CookieName)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoadFallsBackOnInvalidBuckets(t *testing.T) {
	t.Setenv("CATALOG_PRICE_BUCKETS", "100,50,10")

	cfg := Load()

	assert.Equal(t, [3]float64{10, 50, 100}, cfg.Catalog.PriceBuckets)
}
