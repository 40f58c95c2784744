package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/feval/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	err      error
	runs     int
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }
func (j *fakeJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func TestAddJob(t *testing.T) {
	s := New(logger.NewNop())
	job := &fakeJob{name: "a", schedule: "0 30 17 * * 1-5"}

	require.NoError(t, s.AddJob(job))
	assert.Equal(t, []string{"a"}, s.Jobs())

	// 중복 등록 거부
	err := s.AddJob(&fakeJob{name: "a", schedule: "@daily"})
	require.Error(t, err)

	// 잘못된 cron 표현식 거부
	err = s.AddJob(&fakeJob{name: "b", schedule: "not-cron"})
	require.Error(t, err)
}

func TestTrigger_UnknownJob(t *testing.T) {
	s := New(logger.NewNop())
	require.Error(t, s.Trigger("missing"))
}

func TestExecute_RecordsHistory(t *testing.T) {
	s := New(logger.NewNop())
	job := &fakeJob{name: "a", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	s.execute(job)

	h, err := s.HistoryFor("a")
	require.NoError(t, err)
	latest, ok := h.Latest()
	require.True(t, ok)
	assert.True(t, latest.Success)
	assert.Equal(t, 1, job.runs)
	assert.Equal(t, 1.0, h.SuccessRate())
}

func TestExecute_RetriesOnFailure(t *testing.T) {
	s := New(logger.NewNop())
	s.retryDelay = 0
	job := &fakeJob{name: "a", schedule: "@daily", err: assert.AnError}
	require.NoError(t, s.AddJob(job))

	s.execute(job)

	assert.Equal(t, 4, job.runs) // 최초 1회 + 재시도 3회
	h, _ := s.HistoryFor("a")
	latest, _ := h.Latest()
	assert.False(t, latest.Success)
	assert.NotEmpty(t, latest.Error)
}

func TestHistory_Cap(t *testing.T) {
	h := &History{}
	for i := 0; i < maxHistory+20; i++ {
		h.Add(Result{Success: true})
	}
	assert.Len(t, h.Results, maxHistory)
}
