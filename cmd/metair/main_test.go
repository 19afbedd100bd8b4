package main

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/JusciAvelino/Meta-IR/internal/jobs"
)

type stubBar struct {
	added int
	err   error
}

func (b *stubBar) Add(num int) error {
	b.added += num
	return b.err
}

func TestProgressHook(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	job := jobs.NewManager().CreateJob("benchmark", "data/a.csv")

	bar := &stubBar{}
	hook := progressHook(bar, logger)
	hook(job)
	hook(job)
	assert.Equal(t, 2, bar.added)
	assert.Empty(t, buf.String())

	bar.err = errors.New("closed pipe")
	hook(job)
	assert.Equal(t, 3, bar.added)
	assert.Contains(t, buf.String(), "progress bar update failed")
	assert.Contains(t, buf.String(), "closed pipe")
	assert.Contains(t, buf.String(), "data/a.csv")
}
