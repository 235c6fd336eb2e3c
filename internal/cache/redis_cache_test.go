package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/autumnsgrove/cdnup/internal/model"
)

func newTestRedisCache(t *testing.T) *RedisCache {
	t.Helper()
	srv := miniredis.RunT(t)
	return NewRedisCache(srv.Addr(), "")
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestRedisCache(t)
	defer c.Close()

	want := &model.AnalysisRecord{Description: "a snowy mountain", AltText: "snow-capped peak", Tags: []string{"mountain"}}
	if err := c.Put(ctx, "abcd1234", want); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got, err := c.Get(ctx, "abcd1234")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got == nil || got.Description != want.Description || got.AltText != want.AltText {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestRedisCacheMissReturnsNil(t *testing.T) {
	c := newTestRedisCache(t)
	defer c.Close()

	rec, err := c.Get(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("expected no error on a miss, got %v", err)
	}
	if rec != nil {
		t.Fatalf("expected a miss, got %+v", rec)
	}
}

func TestRedisCacheCorruptEntry(t *testing.T) {
	srv := miniredis.RunT(t)
	c := NewRedisCache(srv.Addr(), "")
	defer c.Close()

	if err := srv.Set("analysis:abcd1234", "{not json"); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get(context.Background(), "abcd1234"); err == nil {
		t.Fatal("expected an error for a corrupt entry")
	}
}
