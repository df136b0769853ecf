package dds

import (
	"errors"
	"testing"
)

func TestMulSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		limit   int
		factors []int
		want    int
		wantErr error
	}{
		{name: "fits", limit: 1 << 20, factors: []int{64, 64, 4}, want: 16384},
		{name: "exact-limit", limit: 16384, factors: []int{64, 64, 4}, want: 16384},
		{name: "zero-factor", limit: 10, factors: []int{0, 1 << 40}, want: 0},
		{name: "over-limit", limit: 1024, factors: []int{64, 64, 4}, wantErr: ErrSizeOverflow},
		{name: "negative", limit: 1024, factors: []int{-1, 4}, wantErr: ErrSizeOverflow},
		{name: "huge", limit: DefaultMaxBytes, factors: []int{1 << 32, 1 << 32, 4}, wantErr: ErrSizeOverflow},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := mulSize(tc.limit, tc.factors...)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("mulSize() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("mulSize: %v", err)
			}
			if got != tc.want {
				t.Fatalf("mulSize() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestIntNarrowing(t *testing.T) {
	t.Parallel()

	if _, err := u32FromInt(-1); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("u32FromInt(-1) error = %v", err)
	}
	if got, err := u32FromInt(1 << 31); err != nil || got != 1<<31 {
		t.Fatalf("u32FromInt(1<<31) = %d, %v", got, err)
	}
	if _, err := i32FromInt(1 << 31); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("i32FromInt(1<<31) error = %v", err)
	}
}

func TestMipHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		w, h int
		want int
	}{
		{w: 1, h: 1, want: 1},
		{w: 4, h: 4, want: 3},
		{w: 8, h: 2, want: 2},
		{w: 2, h: 8, want: 2},
		{w: 4096, h: 4096, want: 13},
	}
	for _, tc := range tests {
		got, err := calculateMipMapCount(tc.w, tc.h)
		if err != nil || got != tc.want {
			t.Fatalf("calculateMipMapCount(%d, %d) = %d, %v, want %d", tc.w, tc.h, got, err, tc.want)
		}
	}

	if got := mipDimension(5, 2); got != 1 {
		t.Fatalf("mipDimension(5, 2) = %d, want 1", got)
	}
	if got := mipDimension(5, 3); got != 0 {
		t.Fatalf("mipDimension(5, 3) = %d, want 0", got)
	}
	if got := mipDimension(5, 100); got != 0 {
		t.Fatalf("mipDimension(5, 100) = %d, want 0", got)
	}
	if got := blockCount(5); got != 2 {
		t.Fatalf("blockCount(5) = %d, want 2", got)
	}
	if got := blockCount(0); got != 0 {
		t.Fatalf("blockCount(0) = %d, want 0", got)
	}
}

func TestFilledMips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		w, h, mips int
		want       int
	}{
		{w: 8, h: 2, mips: 4, want: 2},
		{w: 4, h: 4, mips: 4, want: 3},
		{w: 4, h: 4, mips: 2, want: 2},
		{w: 1, h: 1, mips: 1, want: 1},
		{w: 0, h: 4, mips: 3, want: 0},
		{w: 4096, h: 4096, mips: 1 << 32, want: 13},
	}
	for _, tc := range tests {
		if got := filledMips(tc.w, tc.h, tc.mips); got != tc.want {
			t.Fatalf("filledMips(%d, %d, %d) = %d, want %d", tc.w, tc.h, tc.mips, got, tc.want)
		}
	}
}
