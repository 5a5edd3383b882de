package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type eviction struct {
	mode, query string
	reason      EvictReason
}

func recordEvictions(config *Config) *[]eviction {
	var got []eviction
	config.OnEvict = func(mode, query string, reason EvictReason) {
		got = append(got, eviction{mode, query, reason})
	}
	return &got
}

func TestQueryKey(t *testing.T) {
	tests := []struct {
		name string
		a, b [2]string
		same bool
	}{
		{"case", [2]string{"parse", "Jn 3:16"}, [2]string{"parse", "jn 3:16"}, true},
		{"spacing", [2]string{"parse", " jn  3:16 "}, [2]string{"parse", "jn 3:16"}, true},
		{"mode", [2]string{"parse", "jn 3:16"}, [2]string{"expand", "jn 3:16"}, false},
		{"query", [2]string{"parse", "jn 3:16"}, [2]string{"parse", "jn 3:17"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := QueryKey(tt.a[0], tt.a[1]), QueryKey(tt.b[0], tt.b[1])
			if (a == b) != tt.same {
				t.Errorf("QueryKey(%q) == QueryKey(%q) is %v, want %v", tt.a, tt.b, a == b, tt.same)
			}
		})
	}
}

func TestQueryCache_GetPut(t *testing.T) {
	c := NewQueryCache[[]string](Config{MaxSize: 4})

	if _, ok := c.Get("parse", "Gen 1:1"); ok {
		t.Fatal("Get on an empty cache reported a hit")
	}
	c.Put("parse", "Gen 1:1", []string{"Gen.1:1"})
	got, ok := c.Get("parse", "GEN  1:1")
	if !ok {
		t.Fatal("Get after Put missed")
	}
	if diff := cmp.Diff([]string{"Gen.1:1"}, got); diff != "" {
		t.Errorf("cached value (-want +got):\n%s", diff)
	}

	c.Put("parse", "gen 1:1", []string{"Gen.1:2"})
	if got, _ := c.Get("parse", "Gen 1:1"); got[0] != "Gen.1:2" {
		t.Errorf("value after overwrite = %v", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	want := Stats{Hits: 2, Misses: 1, Size: 1, MaxSize: 4}
	if diff := cmp.Diff(want, c.Stats()); diff != "" {
		t.Errorf("Stats() (-want +got):\n%s", diff)
	}
}

func TestQueryCache_CapacityEviction(t *testing.T) {
	config := Config{MaxSize: 2}
	evicted := recordEvictions(&config)
	c := NewQueryCache[int](config)

	c.Put("parse", "Gen 1", 1)
	c.Put("parse", "Ex 1", 2)
	c.Get("parse", "gen 1")
	c.Put("parse", "Lev 1", 3)

	if _, ok := c.Get("parse", "ex 1"); ok {
		t.Error("least recently used query survived")
	}
	if _, ok := c.Get("parse", "gen 1"); !ok {
		t.Error("recently read query was evicted")
	}
	if diff := cmp.Diff([]eviction{{"parse", "ex 1", EvictCapacity}}, *evicted, cmp.AllowUnexported(eviction{})); diff != "" {
		t.Errorf("evictions (-want +got):\n%s", diff)
	}
	if s := c.Stats(); s.Evictions != 1 || s.Expired != 0 || s.Size != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestQueryCache_Expiry(t *testing.T) {
	config := Config{TTL: 20 * time.Millisecond}
	evicted := recordEvictions(&config)
	c := NewQueryCache[string](config)

	c.Put("candidates", "Ps23", "Ps.23:1")
	if _, ok := c.Get("candidates", "Ps23"); !ok {
		t.Fatal("fresh entry missed")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("candidates", "Ps23"); ok {
		t.Fatal("expired entry was returned")
	}

	if diff := cmp.Diff([]eviction{{"candidates", "ps23", EvictExpired}}, *evicted, cmp.AllowUnexported(eviction{})); diff != "" {
		t.Errorf("evictions (-want +got):\n%s", diff)
	}
	want := Stats{Hits: 1, Misses: 1, Expired: 1}
	if diff := cmp.Diff(want, c.Stats()); diff != "" {
		t.Errorf("Stats() (-want +got):\n%s", diff)
	}
}

func TestQueryCache_Unlimited(t *testing.T) {
	c := NewQueryCache[int](Config{MaxSize: -1})
	for i := 0; i < 500; i++ {
		c.Put("parse", fmt.Sprintf("Ps %d", i), i)
	}
	if c.Len() != 500 {
		t.Errorf("Len() = %d, want 500", c.Len())
	}
	if s := c.Stats(); s.Evictions != 0 || s.MaxSize != 0 {
		t.Errorf("Stats() = %+v", s)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
	if _, ok := c.Get("parse", "Ps 1"); ok {
		t.Error("Get after Clear reported a hit")
	}
}

func TestQueryCache_GetOrCompute(t *testing.T) {
	c := NewQueryCache[[]string](Config{MaxSize: 10})
	calls := 0
	compute := func() []string {
		calls++
		return []string{"John.3:16"}
	}

	for _, q := range []string{"Jn 3:16", "jn 3:16", " JN 3:16"} {
		if got := c.GetOrCompute("parse", q, compute); got[0] != "John.3:16" {
			t.Errorf("GetOrCompute(%q) = %v", q, got)
		}
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
}

func TestQueryCache_Concurrency(t *testing.T) {
	var mu sync.Mutex
	evictions := 0
	c := NewQueryCache[int](Config{
		MaxSize: 50,
		OnEvict: func(string, string, EvictReason) {
			mu.Lock()
			evictions++
			mu.Unlock()
		},
	})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				q := fmt.Sprintf("Ps %d:%d", g, i)
				c.GetOrCompute("parse", q, func() int { return i })
			}
		}(g)
	}
	wg.Wait()

	s := c.Stats()
	if s.Size != 50 {
		t.Errorf("Size = %d, want 50", s.Size)
	}
	if int(s.Evictions) != evictions || s.Evictions != 8*200-50 {
		t.Errorf("Evictions = %d, hook saw %d, want %d", s.Evictions, evictions, 8*200-50)
	}
}

func TestStatsAdd(t *testing.T) {
	a := Stats{Hits: 1, Misses: 2, Evictions: 3, Expired: 4, Size: 5, MaxSize: 6}
	want := Stats{Hits: 2, Misses: 4, Evictions: 6, Expired: 8, Size: 10, MaxSize: 12}
	if diff := cmp.Diff(want, a.Add(a)); diff != "" {
		t.Errorf("Add (-want +got):\n%s", diff)
	}
}

func BenchmarkQueryCache_GetOrCompute(b *testing.B) {
	c := NewQueryCache[int](Config{MaxSize: 1000})
	queries := make([]string, 2000)
	for i := range queries {
		queries[i] = fmt.Sprintf("Ps %d", i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.GetOrCompute("parse", queries[i%len(queries)], func() int { return i })
	}
}
