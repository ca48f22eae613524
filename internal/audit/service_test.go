package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTimelineRepo struct {
	rows       []TimelineRow
	lastOffset int
	lastLimit  int
	lastFilter TimelineFilters
}

func (s *stubTimelineRepo) Window(_ context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	s.lastFilter, s.lastOffset, s.lastLimit = f, offset, limit
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

func (s *stubTimelineRepo) All(_ context.Context, f TimelineFilters, limit int) ([]TimelineRow, error) {
	s.lastFilter, s.lastLimit = f, limit
	return s.rows, nil
}

func rowsFixture() []TimelineRow {
	at := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	return []TimelineRow{
		{ID: 3, At: at, ActorID: 1, Action: "delete", Entity: "order", EntityID: "42"},
		{ID: 2, At: at.Add(-time.Hour), ActorID: 7, Action: "delete", Entity: "message", EntityID: "11"},
		{ID: 1, At: at.Add(-2 * time.Hour), ActorID: 1, Action: "create", Entity: "skill", EntityID: "5", Meta: json.RawMessage(`{"title":"Go"}`)},
	}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: rowsFixture()}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)
	assert.Equal(t, PagingInfo{Page: 1, PageSize: 2, HasNext: true, NextPage: 2}, result.Paging)
	assert.Equal(t, 3, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)

	result, err = svc.Timeline(context.Background(), TimelineFilters{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)
	assert.Equal(t, PagingInfo{Page: 2, PageSize: 2, PrevPage: 1}, result.Paging)
	assert.Equal(t, 2, repo.lastOffset)
}

func TestServiceTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize+1, repo.lastLimit)
	assert.NotNil(t, result.Rows)
	assert.Empty(t, result.Rows)

	_, err = svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize+1, repo.lastLimit)
}

func TestServiceWithoutRepository(t *testing.T) {
	_, err := NewService(nil).Timeline(context.Background(), TimelineFilters{})
	assert.Error(t, err)
	_, err = NewService(nil).Export(context.Background(), TimelineFilters{})
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rowsFixture()[2:]))
	assert.Equal(t,
		"id,at,actor_id,action,entity,entity_id,meta\n"+
			`1,2024-03-10T08:00:00Z,1,create,skill,5,"{""title"":""Go""}"`+"\n",
		buf.String())
}

func TestArgsTreatsToAsInclusiveDay(t *testing.T) {
	to := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	a := args(TimelineFilters{To: to, ActorID: 7, Entity: " order "}, 20, 21)
	require.Len(t, a, 7)
	assert.False(t, a[0].(pgtype.Timestamptz).Valid)
	assert.Equal(t, to.Add(24*time.Hour), a[1].(pgtype.Timestamptz).Time)
	assert.Equal(t, int64(7), a[2].(pgtype.Int8).Int64)
	assert.Equal(t, "order", a[3].(pgtype.Text).String)
	assert.False(t, a[4].(pgtype.Text).Valid)
}
