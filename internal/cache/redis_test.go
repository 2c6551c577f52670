package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"WaveSentinel/internal/wave"

	"github.com/redis/go-redis/v9"
)

func TestCodecKeepsBaseScenario(t *testing.T) {
	in := &wave.Result{
		BarCount: 120,
		Scenarios: []wave.Scenario{{
			Type:              wave.Impulse,
			Direction:         wave.Up,
			Phase:             wave.Wave3,
			Swings:            []wave.Swing{{Index: 3, Time: time.Unix(1700000000, 0).UTC(), Price: 101.5, Kind: wave.SwingLow}},
			Confidence:        0.72,
			HighConfidence:    true,
			InvalidationPrice: 98,
			PrimaryTarget:     140,
			Targets:           []float64{140, 130},
		}},
		Summary: wave.Summary{ScenarioCount: 1, Agreement: 1, StrongConsensus: true},
	}
	data, err := encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := out.Base()
	if b == nil || b.Phase != wave.Wave3 || b.Type != wave.Impulse || b.PrimaryTarget != 140 {
		t.Fatalf("base = %+v", b)
	}
	if !b.Swings[0].Time.Equal(in.Scenarios[0].Swings[0].Time) {
		t.Errorf("swing time = %v", b.Swings[0].Time)
	}
	if !out.Summary.StrongConsensus {
		t.Error("summary lost")
	}

	if _, err := encode(nil); err == nil {
		t.Error("expected error for nil result")
	}
	if _, err := decode([]byte("{")); err == nil {
		t.Error("expected error for truncated payload")
	}
}

func TestNamespace(t *testing.T) {
	ns := Namespace("SPX", "1d", wave.DefaultConfig())
	if !strings.HasPrefix(ns, "wave:SPX:1d:") {
		t.Errorf("namespace = %q", ns)
	}
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), Options{})
	if got := s.key("wave:SPX:1d:x:10:5"); got != "wavesentinel:wave:SPX:1d:x:10:5" {
		t.Errorf("key = %q", got)
	}
	if s.ttl != DefaultTTL || s.timeout != DefaultTimeout {
		t.Errorf("defaults not applied: ttl=%v timeout=%v", s.ttl, s.timeout)
	}
}

func TestUnreachableRedis(t *testing.T) {
	if _, err := Connect(context.Background(), Options{}); err == nil {
		t.Error("expected error without address")
	}

	opts := Options{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond}
	if _, err := Connect(context.Background(), opts); err == nil {
		t.Error("expected ping error")
	}

	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: opts.Addr, MaxRetries: -1}), opts)
	defer s.Close()
	if _, ok, err := s.Load("k"); err == nil || ok {
		t.Errorf("Load = ok %v, err %v; want error", ok, err)
	}
	if err := s.Save("k", &wave.Result{}); err == nil {
		t.Error("expected save error")
	}
}
