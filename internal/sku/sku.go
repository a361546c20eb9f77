package sku

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/speps/go-hashids/v2"
)

// no ambiguous characters (0/O, 1/I/L)
const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Generator produces short opaque SKU codes for catalog rows. Codes are
// hashids of (unix-seconds, per-process counter), so they stay unique within
// a process and collisions across restarts would need the same second and
// counter value.
type Generator struct {
	h       *hashids.HashID
	counter atomic.Int64
}

func NewGenerator(salt string) (*Generator, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 8
	hd.Alphabet = alphabet

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("init hashids: %w", err)
	}

	return &Generator{h: h}, nil
}

func (g *Generator) Generate() (string, error) {
	code, err := g.h.EncodeInt64([]int64{time.Now().Unix(), g.counter.Add(1)})
	if err != nil {
		return "", fmt.Errorf("encode sku: %w", err)
	}
	return "BZR-" + code, nil
}
